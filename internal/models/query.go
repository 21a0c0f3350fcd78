package models

import "fmt"

// AnimeQuery is a content-similarity recommendation request.
type AnimeQuery struct {
	Name  string `json:"name"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the name is empty; otherwise normalizes the limit.
func (q *AnimeQuery) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("anime name cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// HybridQuery is a hybrid (user + content) recommendation request.
type HybridQuery struct {
	UserID        int64   `json:"user_id"`
	UserWeight    float64 `json:"user_weight,omitempty"`
	ContentWeight float64 `json:"content_weight,omitempty"`
	TopKUsers     int     `json:"top_k_users,omitempty"`
	TopKContent   int     `json:"top_k_content,omitempty"`
	Limit         int     `json:"limit,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Weights default to 0.5 each when both are unset.
func (q *HybridQuery) Validate() error {
	if q.UserID <= 0 {
		return fmt.Errorf("user id must be positive")
	}
	if q.UserWeight == 0 && q.ContentWeight == 0 {
		q.UserWeight = 0.5
		q.ContentWeight = 0.5
	}
	if q.UserWeight < 0 || q.ContentWeight < 0 {
		return fmt.Errorf("weights cannot be negative")
	}
	if q.TopKUsers <= 0 {
		q.TopKUsers = 10
	}
	if q.TopKContent <= 0 {
		q.TopKContent = 10
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
