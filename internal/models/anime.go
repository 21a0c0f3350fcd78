// Package models defines the shared data types for the recommender.
package models

// AnimeRecord is one row of the cleaned anime reference table.
// Name is the English title when known, otherwise the native title
// (the fallback is applied by the prepare step).
type AnimeRecord struct {
	AnimeID   int64    `json:"anime_id"`
	Name      string   `json:"name"`
	Genres    string   `json:"genres"`
	Score     *float64 `json:"score,omitempty"`
	Episodes  string   `json:"episodes,omitempty"`
	Type      string   `json:"type,omitempty"`
	Premiered string   `json:"premiered,omitempty"`
	Members   int64    `json:"members,omitempty"`
}

// RatingRecord is one user-anime rating, min-max scaled to [0,1] offline.
type RatingRecord struct {
	UserID  int64   `json:"user_id"`
	AnimeID int64   `json:"anime_id"`
	Rating  float64 `json:"rating"`
}

// Preference is an anime a user rated in their own top quartile.
type Preference struct {
	Name   string `json:"name"`
	Genres string `json:"genres"`
}
