package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vibelabs/vibesearch/internal/models"
)

// RemoteIndex queries a hosted vector store over its REST API. The store owns
// index construction and persistence; this client only issues queries and
// upserts. One RemoteIndex is bound to one (index, namespace) pair.
type RemoteIndex struct {
	baseURL   string
	namespace string
	apiKey    string
	metric    Metric
	client    *http.Client
	size      int
}

// NewRemoteIndex creates a client for a remote vector index. metric must
// describe the score scale the store returns for this index.
func NewRemoteIndex(baseURL, namespace, apiKey string, metric Metric) (*RemoteIndex, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote index base URL is required")
	}
	return &RemoteIndex{
		baseURL:   baseURL,
		namespace: namespace,
		apiKey:    apiKey,
		metric:    metric,
		client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Metric returns the score scale the remote store reports.
func (r *RemoteIndex) Metric() Metric {
	return r.metric
}

type remoteQueryRequest struct {
	Namespace       string        `json:"namespace,omitempty"`
	TopK            int           `json:"top_k"`
	Vector          []float32     `json:"vector,omitempty"`
	SparseVector    *SparseVector `json:"sparse_vector,omitempty"`
	IncludeMetadata bool          `json:"include_metadata"`
	IncludeValues   bool          `json:"include_values"`
}

type remoteMatch struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata *models.PlaceMeta `json:"metadata,omitempty"`
}

type remoteQueryResponse struct {
	Matches []remoteMatch `json:"matches"`
}

// Query issues a dense nearest-neighbor query.
func (r *RemoteIndex) Query(ctx context.Context, query []float32, k int) ([]*Match, error) {
	return r.query(ctx, &remoteQueryRequest{
		Namespace:       r.namespace,
		TopK:            k,
		Vector:          query,
		IncludeMetadata: true,
	})
}

// QuerySparse issues a sparse nearest-neighbor query.
func (r *RemoteIndex) QuerySparse(ctx context.Context, query *SparseVector, k int) ([]*Match, error) {
	return r.query(ctx, &remoteQueryRequest{
		Namespace:       r.namespace,
		TopK:            k,
		SparseVector:    query,
		IncludeMetadata: true,
	})
}

func (r *RemoteIndex) query(ctx context.Context, reqBody *remoteQueryRequest) ([]*Match, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Api-Key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vector store returned %d: %s", resp.StatusCode, string(b))
	}
	var out remoteQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	matches := make([]*Match, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, &Match{ID: m.ID, Score: m.Score, Meta: m.Metadata})
	}
	return matches, nil
}

type remoteUpsertVector struct {
	ID           string            `json:"id"`
	Values       []float32         `json:"values,omitempty"`
	SparseValues *SparseVector     `json:"sparse_values,omitempty"`
	Metadata     *models.PlaceMeta `json:"metadata,omitempty"`
}

type remoteUpsertRequest struct {
	Namespace string               `json:"namespace,omitempty"`
	Vectors   []remoteUpsertVector `json:"vectors"`
}

// Add upserts dense vectors into the remote index.
func (r *RemoteIndex) Add(ctx context.Context, ids []string, vectors [][]float32, metas []*models.PlaceMeta) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	upserts := make([]remoteUpsertVector, len(ids))
	for i, id := range ids {
		upserts[i] = remoteUpsertVector{ID: id, Values: vectors[i]}
		if metas != nil && i < len(metas) {
			upserts[i].Metadata = metas[i]
		}
	}
	return r.upsert(ctx, upserts)
}

// AddSparse upserts sparse vectors into the remote index.
func (r *RemoteIndex) AddSparse(ctx context.Context, ids []string, vectors []*SparseVector, metas []*models.PlaceMeta) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	upserts := make([]remoteUpsertVector, len(ids))
	for i, id := range ids {
		upserts[i] = remoteUpsertVector{ID: id, SparseValues: vectors[i]}
		if metas != nil && i < len(metas) {
			upserts[i].Metadata = metas[i]
		}
	}
	return r.upsert(ctx, upserts)
}

func (r *RemoteIndex) upsert(ctx context.Context, vectors []remoteUpsertVector) error {
	body, err := json.Marshal(remoteUpsertRequest{Namespace: r.namespace, Vectors: vectors})
	if err != nil {
		return fmt.Errorf("marshal upsert: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/vectors/upsert", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Api-Key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector store returned %d: %s", resp.StatusCode, string(b))
	}
	r.size += len(vectors)
	return nil
}

// Save is a no-op; the remote store owns persistence.
func (r *RemoteIndex) Save(string) error { return nil }

// Load is a no-op; the remote store owns persistence.
func (r *RemoteIndex) Load(string) error { return nil }

// Size returns the number of vectors upserted through this client. The remote
// store's true count is not tracked here.
func (r *RemoteIndex) Size() int { return r.size }

// Close is a no-op for RemoteIndex.
func (r *RemoteIndex) Close() error { return nil }
