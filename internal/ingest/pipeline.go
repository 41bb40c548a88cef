package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/vibelabs/vibesearch/internal/catalog"
	"github.com/vibelabs/vibesearch/internal/embedding"
	"github.com/vibelabs/vibesearch/internal/keyword"
	"github.com/vibelabs/vibesearch/internal/models"
	"github.com/vibelabs/vibesearch/internal/vector"
)

// SparseStore receives sparse vectors during ingest. Both the local sparse
// index and the remote vector service satisfy it.
type SparseStore interface {
	AddSparse(ctx context.Context, ids []string, vectors []*vector.SparseVector, metas []*models.PlaceMeta) error
	Save(path string) error
}

// Pipeline embeds merged dataset records and writes them to the catalog and
// the dense/sparse/image/keyword indices. Embedding batches run on a shared
// worker pool; index writes happen after all batches complete so the indices
// are never observed half-built.
type Pipeline struct {
	catalog    catalog.Catalog
	dense      embedding.Embedder
	sparseEmb  embedding.SparseEmbedder
	denseIdx   vector.Index
	sparseIdx  SparseStore
	imageIdx   vector.Index
	keywordIdx keyword.PlaceIndex
	pool       *ants.Pool
	batchSize  int
	logger     *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchSize sets how many records each embedding task covers.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithSparse enables the sparse modality during ingest.
func WithSparse(emb embedding.SparseEmbedder, idx SparseStore) Option {
	return func(p *Pipeline) {
		p.sparseEmb = emb
		p.sparseIdx = idx
	}
}

// WithImageIndex enables loading precomputed image embeddings into idx.
func WithImageIndex(idx vector.Index) Option {
	return func(p *Pipeline) { p.imageIdx = idx }
}

// WithKeywordIndex enables full-text indexing of places into idx.
func WithKeywordIndex(idx keyword.PlaceIndex) Option {
	return func(p *Pipeline) { p.keywordIdx = idx }
}

// NewPipeline creates an ingest pipeline. poolSize <= 0 defaults to half the
// CPU count, minimum one worker.
func NewPipeline(cat catalog.Catalog, dense embedding.Embedder, denseIdx vector.Index, poolSize int, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if dense == nil {
		return nil, fmt.Errorf("dense embedder is required")
	}
	if denseIdx == nil {
		return nil, fmt.Errorf("dense index is required")
	}
	if poolSize <= 0 {
		poolSize = runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	p := &Pipeline{
		catalog:   cat,
		dense:     dense,
		denseIdx:  denseIdx,
		pool:      pool,
		batchSize: 32,
		logger:    logger,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stats reports what one Run wrote.
type Stats struct {
	Places       int
	Reviews      int
	ImageVectors int
}

// Run ingests the given records: catalog rows and reviews first, then
// embeddings in pooled batches, then index writes. imageVecs may be nil.
func (p *Pipeline) Run(ctx context.Context, records []*Record, imageVecs map[string][]float32) (*Stats, error) {
	if len(records) == 0 {
		return &Stats{}, nil
	}

	places := make([]*models.Place, len(records))
	ids := make([]string, len(records))
	texts := make([]string, len(records))
	metas := make([]*models.PlaceMeta, len(records))
	for i, rec := range records {
		places[i] = rec.Place
		ids[i] = rec.Place.PlaceID
		texts[i] = rec.CombinedText
		metas[i] = metaFromPlace(rec.Place)
	}

	if err := p.catalog.BatchUpsertPlaces(ctx, places); err != nil {
		return nil, fmt.Errorf("failed to store places: %w", err)
	}
	stats := &Stats{Places: len(places)}
	for _, place := range places {
		if len(place.Reviews) == 0 {
			continue
		}
		if err := p.catalog.AddReviews(ctx, place.PlaceID, place.Reviews); err != nil {
			return nil, fmt.Errorf("failed to store reviews for %s: %w", place.PlaceID, err)
		}
		stats.Reviews += len(place.Reviews)
	}

	denseVecs, sparseVecs, err := p.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	if err := p.denseIdx.Add(ctx, ids, denseVecs, metas); err != nil {
		return nil, fmt.Errorf("failed to add dense vectors: %w", err)
	}
	if p.sparseIdx != nil {
		if err := p.sparseIdx.AddSparse(ctx, ids, sparseVecs, metas); err != nil {
			return nil, fmt.Errorf("failed to add sparse vectors: %w", err)
		}
	}
	if p.imageIdx != nil && len(imageVecs) > 0 {
		var imgIDs []string
		var imgVectors [][]float32
		var imgMetas []*models.PlaceMeta
		for i, id := range ids {
			if v, ok := imageVecs[id]; ok {
				imgIDs = append(imgIDs, id)
				imgVectors = append(imgVectors, v)
				imgMetas = append(imgMetas, metas[i])
			}
		}
		if len(imgIDs) > 0 {
			if err := p.imageIdx.Add(ctx, imgIDs, imgVectors, imgMetas); err != nil {
				return nil, fmt.Errorf("failed to add image vectors: %w", err)
			}
			stats.ImageVectors = len(imgIDs)
		}
	}
	if p.keywordIdx != nil {
		for _, place := range places {
			if err := p.keywordIdx.Index(ctx, place); err != nil {
				return nil, fmt.Errorf("failed to index place %s: %w", place.PlaceID, err)
			}
		}
	}

	p.logger.Info("ingest complete",
		zap.Int("places", stats.Places),
		zap.Int("reviews", stats.Reviews),
		zap.Int("image_vectors", stats.ImageVectors))
	return stats, nil
}

// embedAll embeds texts in batches on the worker pool. Each batch writes into
// a disjoint slice range, so no locking is needed on the result slices.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float32, []*vector.SparseVector, error) {
	denseVecs := make([][]float32, len(texts))
	var sparseVecs []*vector.SparseVector
	if p.sparseEmb != nil {
		sparseVecs = make([]*vector.SparseVector, len(texts))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			batch := texts[start:end]
			vecs, err := p.dense.EmbedBatch(ctx, batch)
			if err != nil {
				fail(fmt.Errorf("failed to embed batch [%d:%d]: %w", start, end, err))
				return
			}
			copy(denseVecs[start:end], vecs)
			if p.sparseEmb == nil {
				return
			}
			for i, text := range batch {
				sv, err := p.sparseEmb.EmbedSparse(ctx, text)
				if err != nil {
					fail(fmt.Errorf("failed to sparse-embed record %d: %w", start+i, err))
					return
				}
				sparseVecs[start+i] = sv
			}
		}); err != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit batch: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return denseVecs, sparseVecs, nil
}

// SaveIndices persists the vector indices to their artifact paths. Empty
// paths and absent indices are skipped.
func (p *Pipeline) SaveIndices(densePath, sparsePath, imagePath string) error {
	if densePath != "" {
		if err := p.denseIdx.Save(densePath); err != nil {
			return fmt.Errorf("failed to save dense index: %w", err)
		}
	}
	if p.sparseIdx != nil && sparsePath != "" {
		if err := p.sparseIdx.Save(sparsePath); err != nil {
			return fmt.Errorf("failed to save sparse index: %w", err)
		}
	}
	if p.imageIdx != nil && imagePath != "" {
		if err := p.imageIdx.Save(imagePath); err != nil {
			return fmt.Errorf("failed to save image index: %w", err)
		}
	}
	return nil
}

// Release frees the worker pool. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func metaFromPlace(p *models.Place) *models.PlaceMeta {
	return &models.PlaceMeta{
		Name:         p.Name,
		Neighborhood: p.Neighborhood,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Tags:         p.Tags,
		Description:  p.Description,
		Emoji:        p.Emoji,
	}
}
