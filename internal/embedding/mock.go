package embedding

import (
	"context"
	"math"
	"sort"

	"github.com/vibelabs/vibesearch/internal/vector"
)

// MockEmbedder is a deterministic dense embedder for tests. It returns a
// fixed-dimension vector derived from the text hash so that the same text
// always gets the same embedding.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := HashString(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	// Normalize to unit length for cosine similarity
	var sum float64
	for _, v := range emb {
		sum += float64(v * v)
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

// MockSparseEmbedder is a deterministic sparse embedder for tests. Each word
// hashes to one vocabulary coordinate with a fixed activation.
type MockSparseEmbedder struct {
	vocabSize int
}

// NewMockSparseEmbedder returns a sparse embedder over a vocabulary of the given size.
func NewMockSparseEmbedder(vocabSize int) *MockSparseEmbedder {
	if vocabSize <= 0 {
		vocabSize = 30315
	}
	return &MockSparseEmbedder{vocabSize: vocabSize}
}

// EmbedSparse maps each distinct word to a vocabulary coordinate.
func (e *MockSparseEmbedder) EmbedSparse(ctx context.Context, text string) (*vector.SparseVector, error) {
	weights := make(map[uint32]float32)
	for _, word := range SplitWords(text) {
		idx := uint32(HashString(word) % e.vocabSize)
		weights[idx] += 1.0
	}
	indices := make([]uint32, 0, len(weights))
	for idx := range weights {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = weights[idx]
	}
	return &vector.SparseVector{Indices: indices, Values: values}, nil
}

// VocabSize returns the vocabulary dimension.
func (e *MockSparseEmbedder) VocabSize() int {
	return e.vocabSize
}

// Close is a no-op for MockSparseEmbedder.
func (e *MockSparseEmbedder) Close() error {
	return nil
}
