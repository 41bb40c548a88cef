package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// HTTPReranker calls a cross-encoder serving endpoint over REST.
type HTTPReranker struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPReranker creates a reranker client.
func NewHTTPReranker(baseURL, model string) (*HTTPReranker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("reranker base URL is required")
	}
	return &HTTPReranker{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// Rerank sends the documents to the serving endpoint and maps the scored
// results back by request index, so candidates with identical formatted text
// stay distinct.
func (h *HTTPReranker) Rerank(ctx context.Context, query string, docs []Document, topN int) ([]Scored, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	body, err := json.Marshal(&rerankRequest{
		Model:     h.model,
		Query:     query,
		Documents: texts,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank request failed: status %d: %s", resp.StatusCode, msg)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	scored := make([]Scored, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(docs) {
			return nil, fmt.Errorf("rerank response index %d out of range", r.Index)
		}
		scored = append(scored, Scored{ID: docs[r.Index].ID, Score: r.RelevanceScore})
	}
	// The endpoint is not trusted to sort; best first is this client's
	// contract.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored, nil
}
