package models

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery marks query validation failures so transport layers can
// map them to 400 responses.
var ErrInvalidQuery = errors.New("invalid query")

// Default modality weights, matching the index build.
const (
	DefaultWeightDense  = 0.4
	DefaultWeightSparse = 0.3
	DefaultWeightImage  = 0.3
)

// SearchQuery represents one search request. Weights are raw inputs and need
// not sum to 1; Validate normalizes them by their sum.
type SearchQuery struct {
	Query        string  `json:"query"`
	TopK         int     `json:"top_k,omitempty"`
	WeightDense  float64 `json:"weight_dense,omitempty"`
	WeightSparse float64 `json:"weight_sparse,omitempty"`
	WeightImage  float64 `json:"weight_image,omitempty"`
	// Rerank requests cross-encoder reranking of the fused candidates.
	Rerank bool `json:"rerank,omitempty"`
	// Narrative requests an LLM summary of the top results.
	Narrative bool `json:"narrative,omitempty"`
}

// Validate checks the query, applies defaults, and normalizes weights so they
// sum to 1. Returns an error for an empty query or out-of-range weights.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidQuery)
	}
	for _, w := range []float64{q.WeightDense, q.WeightSparse, q.WeightImage} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: weights must be in [0,1], got %v", ErrInvalidQuery, w)
		}
	}
	if q.TopK <= 0 {
		q.TopK = 10
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	total := q.WeightDense + q.WeightSparse + q.WeightImage
	if total == 0 {
		q.WeightDense = DefaultWeightDense
		q.WeightSparse = DefaultWeightSparse
		q.WeightImage = DefaultWeightImage
		return nil
	}
	q.WeightDense /= total
	q.WeightSparse /= total
	q.WeightImage /= total
	return nil
}
