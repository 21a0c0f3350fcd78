package models

// RankedResult is a single content-similarity hit, enriched with metadata.
type RankedResult struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
	Genres     string  `json:"genres"`
	Synopsis   string  `json:"synopsis"`
}

// HybridResult is a single hybrid recommendation with its combined score.
type HybridResult struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AnimeResponse is the response for an anime recommendation request.
type AnimeResponse struct {
	Query   string         `json:"query"`
	Results []RankedResult `json:"results"`
	Total   int            `json:"total"`
	// Suggestions contains near-miss anime names when the query did not
	// resolve to a known title.
	Suggestions []string `json:"suggestions,omitempty"`
	QueryTime   int64    `json:"query_time_ms"`
}

// HybridResponse is the response for a hybrid recommendation request.
type HybridResponse struct {
	UserID    int64          `json:"user_id"`
	Results   []HybridResult `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
}

// NameSearchResult is a single hit from the anime name index.
type NameSearchResult struct {
	Name   string  `json:"name"`
	Genres string  `json:"genres,omitempty"`
	Score  float64 `json:"score"`
}
