package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/vibelabs/vibesearch/internal/config"
	"github.com/vibelabs/vibesearch/internal/keyword"
	"github.com/vibelabs/vibesearch/internal/models"
	"github.com/vibelabs/vibesearch/internal/narrative"
	"github.com/vibelabs/vibesearch/internal/rerank"
	"github.com/vibelabs/vibesearch/pkg/utils"
)

// PlaceSource supplies place metadata for response assembly. Satisfied by
// catalog.Catalog.
type PlaceSource interface {
	GetPlaces(ctx context.Context, placeIDs []string) (map[string]*models.Place, error)
}

// Engine runs the hybrid retrieval fan-out and fusion pipeline. A nil
// retriever disables its modality. The Engine is constructed once at startup
// and is safe for concurrent use; all per-request state lives on the stack of
// each Search call.
type Engine struct {
	dense   Retriever
	sparse  Retriever
	image   Retriever
	catalog PlaceSource
	cfg     *config.SearchConfig
	logger  *zap.Logger

	reranker  rerank.Reranker
	rerankCfg *config.RerankConfig

	summarizer   narrative.Summarizer
	narrativeCfg *config.NarrativeConfig

	spell *keyword.SpellChecker

	// overfetch widens the per-modality fan-out. Zero means fan out at the
	// requested top_k, which is how local indices serve.
	overfetch int
}

// NewEngine creates a search engine with the given modality retrievers.
func NewEngine(
	dense, sparse, image Retriever,
	cat PlaceSource,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		dense:   dense,
		sparse:  sparse,
		image:   image,
		catalog: cat,
		cfg:     cfg,
		logger:  logger,
	}
}

// SetReranker enables cross-encoder reranking.
func (e *Engine) SetReranker(r rerank.Reranker, cfg *config.RerankConfig) {
	e.reranker = r
	e.rerankCfg = cfg
}

// SetSummarizer enables LLM narrative generation.
func (e *Engine) SetSummarizer(s narrative.Summarizer, cfg *config.NarrativeConfig) {
	e.summarizer = s
	e.narrativeCfg = cfg
}

// SetOverfetch makes every modality retrieve at least k candidates. Remote
// serving sets this to the vector service's fixed page size; local indices
// leave it unset and fan out at the requested top_k.
func (e *Engine) SetOverfetch(k int) {
	e.overfetch = k
}

// SetSpellChecker enables "did you mean" suggestions when a query returns no
// results.
func (e *Engine) SetSpellChecker(sc *keyword.SpellChecker) {
	e.spell = sc
}

type modalityResult struct {
	cands []Candidate
	err   error
}

// retrieve runs one modality with its own timeout. A nil retriever or zero
// weight yields an empty result without error.
func (e *Engine) retrieve(ctx context.Context, r Retriever, weight float64, query string, topK int) modalityResult {
	if r == nil || weight == 0 {
		return modalityResult{}
	}
	mctx, cancel := context.WithTimeout(ctx, e.cfg.ModalityTimeout)
	defer cancel()
	cands, err := r.Retrieve(mctx, query, topK)
	return modalityResult{cands: cands, err: err}
}

// fanOut issues all enabled modality queries concurrently and joins. A failed
// modality degrades to an empty candidate set; only when every enabled
// modality fails does fanOut return ErrRetrievalUnavailable.
func (e *Engine) fanOut(ctx context.Context, query *models.SearchQuery, topK int) (dense, sparse, image []Candidate, err error) {
	var denseRes, sparseRes, imageRes modalityResult
	done := make(chan struct{}, 3)

	go func() {
		denseRes = e.retrieve(ctx, e.dense, query.WeightDense, query.Query, topK)
		done <- struct{}{}
	}()
	go func() {
		sparseRes = e.retrieve(ctx, e.sparse, query.WeightSparse, query.Query, topK)
		done <- struct{}{}
	}()
	go func() {
		imageRes = e.retrieve(ctx, e.image, query.WeightImage, query.Query, topK)
		done <- struct{}{}
	}()
	for i := 0; i < 3; i++ {
		<-done
	}

	modalities := []struct {
		name      string
		retriever Retriever
		weight    float64
		res       *modalityResult
	}{
		{"dense", e.dense, query.WeightDense, &denseRes},
		{"sparse", e.sparse, query.WeightSparse, &sparseRes},
		{"image", e.image, query.WeightImage, &imageRes},
	}
	enabled, failed := 0, 0
	for _, m := range modalities {
		if m.retriever == nil || m.weight == 0 {
			continue
		}
		enabled++
		if m.res.err != nil {
			failed++
			e.logger.Warn("modality degraded to empty result set",
				zap.String("modality", m.name), zap.Error(m.res.err))
			m.res.cands = nil
		}
	}
	if enabled == 0 {
		return nil, nil, nil, ErrNoModalities
	}
	if failed == enabled {
		return nil, nil, nil, ErrRetrievalUnavailable
	}
	return denseRes.cands, sparseRes.cands, imageRes.cands, nil
}

// Run executes the full pipeline and returns ranked results with metadata
// attached. Results are ordered by rerank score when reranking ran, otherwise
// by hybrid score.
func (e *Engine) Run(ctx context.Context, query *models.SearchQuery) ([]models.RankedResult, map[string]*models.Place, error) {
	if err := query.Validate(); err != nil {
		return nil, nil, err
	}

	topK := query.TopK
	if e.overfetch > topK {
		topK = e.overfetch
	}

	dense, sparse, image, err := e.fanOut(ctx, query, topK)
	if err != nil {
		return nil, nil, err
	}

	Normalize(dense)
	Normalize(sparse)
	Normalize(image)

	weights := Weights{
		Dense:  query.WeightDense,
		Sparse: query.WeightSparse,
		Image:  query.WeightImage,
	}.Redistribute(len(dense) > 0, len(sparse) > 0, len(image) > 0)

	merged := Merge(dense, sparse, image, weights)
	survivors := FilterSort(merged, e.cfg.ScoreThreshold)
	if len(survivors) == 0 {
		return nil, nil, nil
	}

	ids := make([]string, len(survivors))
	for i, m := range survivors {
		ids[i] = m.ID
	}
	places, err := e.catalog.GetPlaces(ctx, ids)
	if err != nil {
		e.logger.Warn("catalog lookup failed, serving index metadata only", zap.Error(err))
		places = map[string]*models.Place{}
	}
	for _, m := range survivors {
		if place, ok := places[m.ID]; ok {
			if m.Meta == nil {
				m.Meta = &models.PlaceMeta{}
			}
			m.Meta.MergeFrom(placeMeta(place))
		}
	}

	ranked := e.maybeRerank(ctx, query, survivors)
	if len(ranked) > query.TopK {
		ranked = ranked[:query.TopK]
	}
	return ranked, places, nil
}

// maybeRerank invokes the cross-encoder when requested and configured,
// falling back to the hybrid ordering on any failure.
func (e *Engine) maybeRerank(ctx context.Context, query *models.SearchQuery, survivors []*Merged) []models.RankedResult {
	if !query.Rerank || e.reranker == nil {
		return rankedFromMerged(survivors)
	}

	docs := make([]rerank.Document, len(survivors))
	byID := make(map[string]*Merged, len(survivors))
	for i, m := range survivors {
		docs[i] = rerank.Document{ID: m.ID, Text: rerank.FormatPlace(m.Meta)}
		byID[m.ID] = m
	}

	rctx, cancel := context.WithTimeout(ctx, e.rerankCfg.Timeout)
	defer cancel()
	scored, err := e.reranker.Rerank(rctx, query.Query, docs, e.rerankCfg.TopN)
	if err != nil {
		e.logger.Warn("rerank failed, falling back to hybrid ordering", zap.Error(err))
		return rankedFromMerged(survivors)
	}

	ranked := make([]models.RankedResult, 0, len(scored))
	for _, s := range scored {
		m, ok := byID[s.ID]
		if !ok {
			continue
		}
		r := rankedResult(m)
		score := s.Score
		r.RerankScore = &score
		ranked = append(ranked, r)
	}
	return ranked
}

func rankedFromMerged(merged []*Merged) []models.RankedResult {
	ranked := make([]models.RankedResult, len(merged))
	for i, m := range merged {
		ranked[i] = rankedResult(m)
	}
	return ranked
}

func rankedResult(m *Merged) models.RankedResult {
	r := models.RankedResult{
		PlaceID:     m.ID,
		HybridScore: utils.Round(m.Hybrid, 6),
		DenseScore:  utils.Round(m.DenseScore, 6),
		SparseScore: utils.Round(m.SparseScore, 6),
		ImageScore:  utils.Round(m.ImageScore, 6),
	}
	if m.Meta != nil {
		r.Name = m.Meta.Name
		r.Neighborhood = m.Meta.Neighborhood
		r.Tags = m.Meta.Tags
		r.Description = m.Meta.Description
		r.Emoji = m.Meta.Emoji
	}
	return r
}

// Search runs the pipeline and assembles the place-level response, including
// the optional narrative.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	ranked, placeMap, err := e.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	response := &models.SearchResponse{
		Places:       make([]models.Place, 0, len(ranked)),
		TotalResults: len(ranked),
		Query:        query.Query,
	}
	for _, r := range ranked {
		place := placeMap[r.PlaceID]
		if place == nil {
			place = &models.Place{PlaceID: r.PlaceID}
			if r.Name != "" {
				place.Name = r.Name
				place.Neighborhood = r.Neighborhood
				place.Tags = r.Tags
				place.Description = r.Description
				place.Emoji = r.Emoji
			}
		}
		out := *place
		if r.RerankScore != nil {
			out.Score = utils.Round(*r.RerankScore, 6)
		} else {
			out.Score = r.HybridScore
		}
		response.Places = append(response.Places, out)
	}

	if query.Narrative && e.summarizer != nil && len(response.Places) > 0 {
		response.LLMResponse = e.summarize(ctx, query.Query, response.Places)
	}
	return response, nil
}

// SearchRanked runs the pipeline and returns score-level results for the GET
// variant. An empty result set carries the user-facing message instead of
// an error.
func (e *Engine) SearchRanked(ctx context.Context, query *models.SearchQuery) (*models.HybridResponse, error) {
	ranked, _, err := e.Run(ctx, query)
	if err != nil {
		return nil, err
	}
	resp := &models.HybridResponse{Results: ranked}
	if len(ranked) == 0 {
		resp.Results = []models.RankedResult{}
		resp.Message = "No valid results found for your query."
		if e.spell != nil {
			if corrected := e.spell.GetSuggestedQuery(query.Query); corrected != query.Query {
				resp.SuggestedQuery = corrected
			}
		}
	}
	return resp, nil
}

// summarize generates the narrative for the top places, never failing the
// request.
func (e *Engine) summarize(ctx context.Context, query string, places []models.Place) string {
	top := places
	if len(top) > e.narrativeCfg.TopPlaces {
		top = top[:e.narrativeCfg.TopPlaces]
	}
	refs := make([]*models.Place, len(top))
	for i := range top {
		refs[i] = &top[i]
	}

	nctx, cancel := context.WithTimeout(ctx, e.narrativeCfg.Timeout)
	defer cancel()
	text, err := e.summarizer.Summarize(nctx, query, refs)
	if err != nil {
		e.logger.Warn("narrative generation failed, omitting llm_response", zap.Error(err))
		return ""
	}
	return text
}

func placeMeta(p *models.Place) *models.PlaceMeta {
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
