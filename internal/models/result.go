package models

// RankedResult is one fused candidate with its per-modality normalized scores.
// RerankScore is set only when the cross-encoder ran; when present it is the
// ordering key and is not comparable to HybridScore.
type RankedResult struct {
	PlaceID      string   `json:"place_id"`
	HybridScore  float64  `json:"hybrid_score"`
	DenseScore   float64  `json:"dense_score"`
	SparseScore  float64  `json:"sparse_score"`
	ImageScore   float64  `json:"image_score,omitempty"`
	RerankScore  *float64 `json:"rerank_score,omitempty"`
	Name         string   `json:"name,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Description  string   `json:"description,omitempty"`
	Emoji        string   `json:"emoji,omitempty"`
}

// SearchResponse is the POST /search response.
type SearchResponse struct {
	Places       []Place `json:"places"`
	TotalResults int     `json:"total_results"`
	Query        string  `json:"query"`
	LLMResponse  string  `json:"llm_response,omitempty"`
}

// HybridResponse is the GET /search response. SuggestedQuery carries a
// spelling correction when the query produced no results.
type HybridResponse struct {
	Results        []RankedResult `json:"results"`
	Message        string         `json:"message,omitempty"`
	SuggestedQuery string         `json:"suggested_query,omitempty"`
}
