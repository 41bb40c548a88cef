package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// RemoteEmbedder produces dense embeddings through an OpenAI-compatible
// embeddings API. It serves both the semantic-text modality and, pointed at a
// CLIP-text endpoint, the image/text cross-modal modality.
type RemoteEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
	cache      *EmbeddingCache
}

// NewRemoteEmbedder creates a remote embedder. baseURL is the API root, model
// the embedding model identifier. apiKey may be empty for local services.
func NewRemoteEmbedder(baseURL, model, apiKey string, dimensions, cacheSize int) (*RemoteEmbedder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	token := apiKey
	if token == "" {
		// langchaingo requires a token; local services ignore it.
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = 10000
	}
	return &RemoteEmbedder{
		embedder:   embedder,
		dimensions: dimensions,
		cache:      NewEmbeddingCache(cacheSize),
	}, nil
}

// Embed returns the embedding for text, using the cache when available.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	vecs, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("remote embed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) != e.dimensions {
		return nil, fmt.Errorf("remote embed: got %d vectors, want dimension %d", len(vecs), e.dimensions)
	}
	e.cache.Set(text, vecs[0])
	return vecs[0], nil
}

// EmbedBatch embeds texts in one API call.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("remote embed batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("remote embed batch: got %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, text := range texts {
		e.cache.Set(text, vecs[i])
	}
	return vecs, nil
}

// Dimensions returns the embedding dimension.
func (e *RemoteEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (e *RemoteEmbedder) Close() error {
	return nil
}
