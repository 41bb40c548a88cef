package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/vibelabs/vibesearch/internal/vector"
)

// RemoteSparseEmbedder calls a sparse-embedding sidecar (a SPLADE-style model
// behind an HTTP endpoint) that returns coordinate-form vectors. The sidecar's
// vocabulary size is configuration; it must match the sparse index.
type RemoteSparseEmbedder struct {
	baseURL   string
	model     string
	vocabSize int
	client    *http.Client
}

// NewRemoteSparseEmbedder creates a sparse embedder client.
func NewRemoteSparseEmbedder(baseURL, model string, vocabSize int) (*RemoteSparseEmbedder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("sparse embedding base URL is required")
	}
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocab size must be positive")
	}
	return &RemoteSparseEmbedder{
		baseURL:   baseURL,
		model:     model,
		vocabSize: vocabSize,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type sparseEmbedRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type sparseEmbedResponse struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// EmbedSparse requests a sparse embedding for text. Indices in the result are
// sorted ascending.
func (e *RemoteSparseEmbedder) EmbedSparse(ctx context.Context, text string) (*vector.SparseVector, error) {
	body, err := json.Marshal(sparseEmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal sparse embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed/sparse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sparse embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparse embed request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sparse embedder returned %d: %s", resp.StatusCode, string(b))
	}
	var out sparseEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sparse embed response: %w", err)
	}
	if len(out.Indices) != len(out.Values) {
		return nil, fmt.Errorf("sparse embedder returned %d indices for %d values", len(out.Indices), len(out.Values))
	}
	for _, idx := range out.Indices {
		if int(idx) >= e.vocabSize {
			return nil, fmt.Errorf("sparse index %d exceeds vocabulary size %d", idx, e.vocabSize)
		}
	}
	sv := &vector.SparseVector{Indices: out.Indices, Values: out.Values}
	if !sort.SliceIsSorted(sv.Indices, func(i, j int) bool { return sv.Indices[i] < sv.Indices[j] }) {
		sortSparse(sv)
	}
	return sv, nil
}

func sortSparse(v *vector.SparseVector) {
	type pair struct {
		idx uint32
		val float32
	}
	pairs := make([]pair, len(v.Indices))
	for i := range v.Indices {
		pairs[i] = pair{v.Indices[i], v.Values[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })
	for i, p := range pairs {
		v.Indices[i] = p.idx
		v.Values[i] = p.val
	}
}

// VocabSize returns the configured vocabulary dimension.
func (e *RemoteSparseEmbedder) VocabSize() int {
	return e.vocabSize
}

// Close is a no-op for RemoteSparseEmbedder.
func (e *RemoteSparseEmbedder) Close() error {
	return nil
}
