package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/vibelabs/vibesearch/internal/models"
)

type fakeModel struct {
	response string
	err      error
	lastMsgs []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMsgs = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.response, f.err
}

func TestBuildUserPrompt(t *testing.T) {
	places := []*models.Place{
		{
			Name:         "Daily Grind",
			Neighborhood: "Upper West Side",
			Description:  "Espresso bar.",
			Reviews:      []string{"great beans", "cozy", "loud on weekends"},
		},
		{Name: "Bean There"},
	}
	prompt := buildUserPrompt("coffee upper west side", places, 2)
	if !strings.Contains(prompt, "Query: coffee upper west side") {
		t.Errorf("prompt missing query:\n%s", prompt)
	}
	if !strings.Contains(prompt, "1. Daily Grind (Upper West Side): Espresso bar.") {
		t.Errorf("prompt missing first venue line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "review: great beans") {
		t.Errorf("prompt missing review:\n%s", prompt)
	}
	if strings.Contains(prompt, "loud on weekends") {
		t.Errorf("maxReviews not applied:\n%s", prompt)
	}
	if !strings.Contains(prompt, "2. Bean There") {
		t.Errorf("prompt missing second venue:\n%s", prompt)
	}
}

func TestLLMSummarizer_Summarize(t *testing.T) {
	model := &fakeModel{response: "  Daily Grind is the spot for you. \n"}
	s := NewLLMSummarizerWithModel(model, 3)
	got, err := s.Summarize(context.Background(), "coffee", []*models.Place{{Name: "Daily Grind"}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Daily Grind is the spot for you." {
		t.Errorf("got %q", got)
	}
	if len(model.lastMsgs) != 2 || model.lastMsgs[0].Role != schema.ChatMessageTypeSystem {
		t.Errorf("unexpected messages: %+v", model.lastMsgs)
	}
}

func TestLLMSummarizer_error(t *testing.T) {
	s := NewLLMSummarizerWithModel(&fakeModel{err: errors.New("rate limited")}, 3)
	if _, err := s.Summarize(context.Background(), "q", []*models.Place{{Name: "X"}}); err == nil {
		t.Error("expected error")
	}
}

func TestLLMSummarizer_emptyPlaces(t *testing.T) {
	s := NewLLMSummarizerWithModel(&fakeModel{response: "unused"}, 3)
	got, err := s.Summarize(context.Background(), "q", nil)
	if err != nil || got != "" {
		t.Errorf("empty places should short-circuit: %q, %v", got, err)
	}
}
