package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/vibelabs/vibesearch/internal/models"
)

// LLMSummarizer implements Summarizer using an OpenAI-compatible chat API.
type LLMSummarizer struct {
	client     llms.Model
	maxReviews int
}

// NewLLMSummarizer creates a summarizer against an OpenAI-compatible endpoint.
// baseURL may be empty for the default OpenAI endpoint; the API key comes from
// the OPENAI_API_KEY environment variable.
func NewLLMSummarizer(baseURL, model string, maxReviews int) (*LLMSummarizer, error) {
	opts := []openai.Option{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return &LLMSummarizer{client: client, maxReviews: maxReviews}, nil
}

// NewLLMSummarizerWithModel wraps an existing llms.Model. Used in tests.
func NewLLMSummarizerWithModel(client llms.Model, maxReviews int) *LLMSummarizer {
	return &LLMSummarizer{client: client, maxReviews: maxReviews}
}

// Summarize generates the narrative for the top places.
func (s *LLMSummarizer) Summarize(ctx context.Context, query string, places []*models.Place) (string, error) {
	if len(places) == 0 {
		return "", nil
	}

	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildUserPrompt(query, places, s.maxReviews))},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("narrative generation returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Content), nil
}
