package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vibelabs/vibesearch/internal/catalog"
	"github.com/vibelabs/vibesearch/internal/models"
	"github.com/vibelabs/vibesearch/internal/search"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "vibesearch",
		"version": Version,
		"endpoints": []string{
			"POST /search",
			"GET /search",
			"GET /places/{id}",
			"GET /health",
			"GET /status",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))

	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// handleHybridSearch serves the GET variant with per-modality weight query
// parameters. Weights need not sum to 1; query validation normalizes them.
func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := models.SearchQuery{
		Query:        params.Get("q"),
		WeightDense:  parseFloat(params.Get("weight_dense"), models.DefaultWeightDense),
		WeightSparse: parseFloat(params.Get("weight_sparse"), models.DefaultWeightSparse),
		WeightImage:  parseFloat(params.Get("weight_image"), models.DefaultWeightImage),
		Rerank:       params.Get("rerank") == "true",
		Narrative:    params.Get("narrative") == "true",
	}
	if v := params.Get("top_k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.TopK = n
		}
	}
	if query.TopK == 0 {
		query.TopK = s.config.Search.DefaultTopK
	}

	response, err := s.engine.SearchRanked(r.Context(), &query)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetPlace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	place, err := s.catalog.GetPlace(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "place not found")
		return
	}
	s.respondJSON(w, http.StatusOK, place)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	placeCount, err := s.catalog.CountPlaces(ctx)
	if err != nil {
		s.logger.Error("status: count places failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	reviewCount, err := s.catalog.CountReviews(ctx)
	if err != nil {
		s.logger.Error("status: count reviews failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	status := map[string]interface{}{
		"places":  placeCount,
		"reviews": reviewCount,
		"config": map[string]interface{}{
			"weight_dense":      s.config.Search.WeightDense,
			"weight_sparse":     s.config.Search.WeightSparse,
			"weight_image":      s.config.Search.WeightImage,
			"score_threshold":   s.config.Search.ScoreThreshold,
			"rerank_enabled":    s.config.Rerank.Enabled,
			"narrative_enabled": s.config.Narrative.Enabled,
		},
	}
	if diskBytes, err := catalog.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.DenseIndexPath,
		s.config.Storage.SparseIndexPath,
		s.config.Storage.ImageIndexPath,
		s.config.Storage.BleveIndexPath,
	); err == nil {
		status["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, status)
}

// respondSearchError maps pipeline errors onto the HTTP taxonomy: validation
// errors are 400, total retrieval failure is 503, anything else a generic 500.
func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrRetrievalUnavailable):
		s.logger.Error("all retrieval modalities failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "search is temporarily unavailable")
	case errors.Is(err, search.ErrNoModalities), errors.Is(err, models.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseFloat(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
