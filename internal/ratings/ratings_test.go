package ratings

import (
	"path/filepath"
	"testing"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]models.AnimeRecord{
		{AnimeID: 1, Name: "Cowboy Bebop", Genres: "Action, Sci-Fi"},
		{AnimeID: 2, Name: "Trigun", Genres: "Action, Comedy"},
		{AnimeID: 3, Name: "Monster", Genres: "Drama, Thriller"},
		{AnimeID: 4, Name: "Hellsing", Genres: "Action, Horror"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTopPreferencesQuartile(t *testing.T) {
	cat := testCatalog(t)
	s := New([]models.RatingRecord{
		{UserID: 7, AnimeID: 1, Rating: 1.0},
		{UserID: 7, AnimeID: 2, Rating: 0.8},
		{UserID: 7, AnimeID: 3, Rating: 0.4},
		{UserID: 7, AnimeID: 4, Rating: 0.2},
	})

	prefs := s.TopPreferences(7, cat)
	// 75th percentile of {0.2, 0.4, 0.8, 1.0} is 0.85: only the 1.0 rating survives.
	if len(prefs) != 1 {
		t.Fatalf("prefs = %v", prefs)
	}
	if prefs[0].Name != "Cowboy Bebop" {
		t.Errorf("top preference = %q", prefs[0].Name)
	}
}

func TestTopPreferencesSingleRating(t *testing.T) {
	cat := testCatalog(t)
	s := New([]models.RatingRecord{{UserID: 9, AnimeID: 2, Rating: 0.6}})
	prefs := s.TopPreferences(9, cat)
	if len(prefs) != 1 || prefs[0].Name != "Trigun" {
		t.Errorf("prefs = %v", prefs)
	}
}

func TestTopPreferencesUnknownUser(t *testing.T) {
	cat := testCatalog(t)
	s := New(nil)
	if prefs := s.TopPreferences(12345, cat); len(prefs) != 0 {
		t.Errorf("unknown user prefs = %v", prefs)
	}
}

func TestTopPreferencesSkipsUnknownAnime(t *testing.T) {
	cat := testCatalog(t)
	s := New([]models.RatingRecord{
		{UserID: 3, AnimeID: 999, Rating: 1.0}, // not in catalog
		{UserID: 3, AnimeID: 1, Rating: 1.0},
	})
	prefs := s.TopPreferences(3, cat)
	if len(prefs) != 1 || prefs[0].Name != "Cowboy Bebop" {
		t.Errorf("prefs = %v", prefs)
	}
}

func TestLoadFromDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := catalog.OpenDB(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	records := []models.RatingRecord{
		{UserID: 1, AnimeID: 1, Rating: 0.9},
		{UserID: 1, AnimeID: 2, Rating: 0.5},
		{UserID: 2, AnimeID: 1, Rating: 0.7},
	}
	if err := catalog.WriteRatings(db, records); err != nil {
		t.Fatal(err)
	}

	s, err := Load(db)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 || s.Users() != 2 {
		t.Errorf("Len=%d Users=%d", s.Len(), s.Users())
	}
	if got := s.UserRatings(1); len(got) != 2 {
		t.Errorf("user 1 ratings = %v", got)
	}
}
