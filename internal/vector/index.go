// Package vector provides vector index implementations and similarity search.
package vector

import (
	"context"

	"github.com/vibelabs/vibesearch/internal/models"
)

// Metric identifies the score scale an index returns.
type Metric string

const (
	// MetricInnerProduct scores are higher-is-better (cosine for normalized vectors).
	MetricInnerProduct Metric = "inner_product"
	// MetricL2 scores are squared L2 distances, lower-is-better. Callers must
	// sign-invert before comparing with inner-product scores.
	MetricL2 Metric = "l2"
)

// Match is a single index hit. Meta may be nil for indices that store no
// metadata; the catalog fills it in later.
type Match struct {
	ID    string
	Score float64
	Meta  *models.PlaceMeta
}

// Index defines vector storage and nearest-neighbor search for one modality.
// Implementations are read-only during serving and safe for concurrent queries.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32, metas []*models.PlaceMeta) error
	Query(ctx context.Context, query []float32, k int) ([]*Match, error)
	Metric() Metric
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// SparseVector is a sparse embedding in coordinate form. Indices are positions
// in the sparse model's vocabulary; Values are the corresponding activations.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}
