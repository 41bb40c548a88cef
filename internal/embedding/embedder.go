// Package embedding provides dense and sparse text embedders. Dense embedders
// cover both the semantic-text and the image/text cross-modal modalities; the
// image modality is just a dense embedder whose model projects text into the
// image embedding space.
package embedding

import (
	"context"

	"github.com/vibelabs/vibesearch/internal/vector"
)

// Embedder produces dense vector embeddings for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// SparseEmbedder produces sparse lexical embeddings for text. The returned
// vector's indices lie within the sparse model's vocabulary and are sorted
// ascending.
type SparseEmbedder interface {
	EmbedSparse(ctx context.Context, text string) (*vector.SparseVector, error)
	VocabSize() int
	Close() error
}
