// Package ratings holds the static ratings snapshot and derives per-user
// top preferences from it.
package ratings

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/pkg/utils"
)

// Store holds all ratings in memory, grouped by user. Read-only after load.
type Store struct {
	byUser map[int64][]models.RatingRecord
	total  int
}

// Load reads the ratings table from the catalog database.
func Load(db *sql.DB) (*Store, error) {
	rows, err := db.Query(`SELECT user_id, anime_id, rating FROM ratings`)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	s := &Store{byUser: make(map[int64][]models.RatingRecord)}
	for rows.Next() {
		var r models.RatingRecord
		if err := rows.Scan(&r.UserID, &r.AnimeID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		s.byUser[r.UserID] = append(s.byUser[r.UserID], r)
		s.total++
	}
	return s, rows.Err()
}

// New builds a store directly from records, for tests.
func New(records []models.RatingRecord) *Store {
	s := &Store{byUser: make(map[int64][]models.RatingRecord)}
	for _, r := range records {
		s.byUser[r.UserID] = append(s.byUser[r.UserID], r)
		s.total++
	}
	return s
}

// Len returns the total number of ratings.
func (s *Store) Len() int { return s.total }

// Users returns the number of distinct users.
func (s *Store) Users() int { return len(s.byUser) }

// UserRatings returns the ratings of one user. The returned slice must not
// be modified.
func (s *Store) UserRatings(userID int64) []models.RatingRecord {
	return s.byUser[userID]
}

// TopPreferences returns the animes a user rated at or above the 75th
// percentile of their own rating distribution, joined with the catalog for
// name and genres. The threshold is per-user, so a user with very few
// ratings may retain all of them; that is accepted, not an error. Duplicate
// names collapse, keeping the higher-rated occurrence. An unknown user
// yields an empty set.
func (s *Store) TopPreferences(userID int64, cat *catalog.Catalog) []models.Preference {
	userRatings := s.byUser[userID]
	if len(userRatings) == 0 {
		return nil
	}

	values := make([]float64, len(userRatings))
	for i, r := range userRatings {
		values[i] = r.Rating
	}
	threshold := utils.Percentile(values, 75)

	retained := make([]models.RatingRecord, 0, len(userRatings))
	for _, r := range userRatings {
		if r.Rating >= threshold {
			retained = append(retained, r)
		}
	}
	sort.SliceStable(retained, func(i, j int) bool { return retained[i].Rating > retained[j].Rating })

	prefs := make([]models.Preference, 0, len(retained))
	seen := make(map[string]bool, len(retained))
	for _, r := range retained {
		rec, ok := cat.ByID(r.AnimeID)
		if !ok || rec.Name == "" || seen[rec.Name] {
			continue
		}
		seen[rec.Name] = true
		prefs = append(prefs, models.Preference{Name: rec.Name, Genres: rec.Genres})
	}
	return prefs
}
