package search

import (
	"context"
	"fmt"

	"github.com/vibelabs/vibesearch/internal/embedding"
	"github.com/vibelabs/vibesearch/internal/keyword"
	"github.com/vibelabs/vibesearch/internal/vector"
)

// Retriever produces one modality's candidate set for a query. Implementations
// own the text-to-vector conversion for their modality and return raw scores
// oriented higher-is-better.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Candidate, error)
}

type denseQuerier interface {
	Query(ctx context.Context, query []float32, k int) ([]*vector.Match, error)
	Metric() vector.Metric
}

type sparseQuerier interface {
	QuerySparse(ctx context.Context, query *vector.SparseVector, k int) ([]*vector.Match, error)
}

// DenseRetriever embeds the query text and runs a dense nearest-neighbor
// search. It serves both the semantic-text and the image/text modalities; the
// two differ only in which embedder and index they are wired to.
type DenseRetriever struct {
	embedder embedding.Embedder
	index    denseQuerier
}

// NewDenseRetriever wires an embedder to a dense index.
func NewDenseRetriever(embedder embedding.Embedder, index denseQuerier) *DenseRetriever {
	return &DenseRetriever{embedder: embedder, index: index}
}

// Retrieve embeds query and returns the topK nearest candidates. Distance
// metrics where lower is better are sign-inverted so callers always see
// higher-is-better raw scores.
func (r *DenseRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Candidate, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dense embedding failed: %w", err)
	}
	matches, err := r.index.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("dense index query failed: %w", err)
	}
	cands := matchCandidates(matches)
	if r.index.Metric() == vector.MetricL2 {
		InvertScores(cands)
	}
	return cands, nil
}

// SparseRetriever embeds the query into sparse vocabulary space and runs a
// sparse similarity search.
type SparseRetriever struct {
	embedder embedding.SparseEmbedder
	index    sparseQuerier
}

// NewSparseRetriever wires a sparse embedder to a sparse index.
func NewSparseRetriever(embedder embedding.SparseEmbedder, index sparseQuerier) *SparseRetriever {
	return &SparseRetriever{embedder: embedder, index: index}
}

// Retrieve embeds query and returns the topK sparse matches.
func (r *SparseRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Candidate, error) {
	sv, err := r.embedder.EmbedSparse(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sparse embedding failed: %w", err)
	}
	matches, err := r.index.QuerySparse(ctx, sv, topK)
	if err != nil {
		return nil, fmt.Errorf("sparse index query failed: %w", err)
	}
	return matchCandidates(matches), nil
}

// LexicalRetriever serves the lexical modality from the BM25 place index. It
// is the fallback when no sparse embedding service is configured; BM25 scores
// are higher-is-better and unbounded, which min-max normalization absorbs.
type LexicalRetriever struct {
	index keyword.PlaceIndex
}

// NewLexicalRetriever wraps the keyword index as a modality retriever.
func NewLexicalRetriever(index keyword.PlaceIndex) *LexicalRetriever {
	return &LexicalRetriever{index: index}
}

// Retrieve runs a BM25 query over the place index.
func (r *LexicalRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Candidate, error) {
	results, err := r.index.Search(ctx, query, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	cands := make([]Candidate, len(results))
	for i, res := range results {
		cands[i] = Candidate{ID: res.ID, RawScore: res.Score}
	}
	return cands, nil
}

func matchCandidates(matches []*vector.Match) []Candidate {
	cands := make([]Candidate, len(matches))
	for i, m := range matches {
		cands[i] = Candidate{ID: m.ID, RawScore: m.Score, Meta: m.Meta}
	}
	return cands
}
