package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/artifacts"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/catalog"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/codec"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/embedding"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/ratings"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/recommend"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	animeMatrix, err := embedding.New([][]float32{{1, 0}, {0.99, 0.14}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	userMatrix, err := embedding.New([][]float32{{1, 0}, {0.9, 0.1}})
	if err != nil {
		t.Fatal(err)
	}
	animeCodec := codec.New([]int64{1, 2, 3})
	userCodec := codec.New([]int64{10, 11})
	cat, err := catalog.New([]models.AnimeRecord{
		{AnimeID: 1, Name: "Cowboy Bebop", Genres: "Action"},
		{AnimeID: 2, Name: "Trigun", Genres: "Action"},
		{AnimeID: 3, Name: "Aria", Genres: "Slice of Life"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	ratingStore := ratings.New([]models.RatingRecord{
		{UserID: 10, AnimeID: 1, Rating: 1.0},
		{UserID: 10, AnimeID: 2, Rating: 0.9},
		{UserID: 11, AnimeID: 1, Rating: 1.0},
		{UserID: 11, AnimeID: 2, Rating: 0.9},
	})

	logger := zap.NewNop()
	anime := recommend.NewAnime(animeMatrix, animeCodec, cat, logger)
	snap := &artifacts.Snapshot{
		ID:          "test-snapshot",
		LoadedAt:    time.Now(),
		UserMatrix:  userMatrix,
		AnimeMatrix: animeMatrix,
		UserCodec:   userCodec,
		AnimeCodec:  animeCodec,
		Catalog:     cat,
		Ratings:     ratingStore,
		Anime:       anime,
		Hybrid:      recommend.NewHybrid(userMatrix, userCodec, ratingStore, cat, anime, logger),
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(artifacts.NewProvider(snap), cfg, logger)
}

func TestHandleRecommendAnime(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/anime",
		strings.NewReader(`{"name":"Cowboy Bebop","limit":1}`))
	w := httptest.NewRecorder()
	s.handleRecommendAnime(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.AnimeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].Name != "Trigun" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleRecommendAnimeNotFound(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/anime",
		strings.NewReader(`{"name":"Nonexistent Show"}`))
	w := httptest.NewRecorder()
	s.handleRecommendAnime(w, req)

	// A miss is not a fault: 200 with an empty list.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.AnimeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results, got %v", resp.Results)
	}
	if len(resp.Suggestions) == 0 {
		t.Error("expected name suggestions for a miss")
	}
}

func TestHandleRecommendAnimeLimitClamped(t *testing.T) {
	s := testServer(t)
	s.config.Recommend.MaxLimit = 1

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/anime",
		strings.NewReader(`{"name":"Cowboy Bebop","limit":50}`))
	w := httptest.NewRecorder()
	s.handleRecommendAnime(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.AnimeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	// The fixture has two neighbors; the configured cap keeps only one.
	if resp.Total != 1 {
		t.Errorf("total = %d, want the configured max of 1", resp.Total)
	}
}

func TestHandleRecommendAnimeBadBody(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/anime", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	s.handleRecommendAnime(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHandleRecommendHybrid(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/hybrid",
		strings.NewReader(`{"user_id":10}`))
	w := httptest.NewRecorder()
	s.handleRecommendHybrid(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HybridResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.UserID != 10 {
		t.Errorf("user id = %d", resp.UserID)
	}
}

func TestHandleRecommendHybridUnknownUser(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend/hybrid",
		strings.NewReader(`{"user_id":9999}`))
	w := httptest.NewRecorder()
	s.handleRecommendHybrid(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HybridResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected empty results, got %v", resp.Results)
	}
}

func TestHandleNameSearch(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/animes/search?q=cowboy", nil)
	w := httptest.NewRecorder()
	s.handleNameSearch(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/animes/search", nil)
	w = httptest.NewRecorder()
	s.handleNameSearch(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	s.handleStatus(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["snapshot_id"] != "test-snapshot" {
		t.Errorf("snapshot_id = %v", resp["snapshot_id"])
	}
}

func TestHandleFormSubmit(t *testing.T) {
	s := testServer(t)
	form := url.Values{"anime_name": {"Cowboy Bebop"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handleFormSubmit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Trigun") {
		t.Error("form results should list the nearest anime")
	}
}

func TestHandleFormSubmitUnknownAnime(t *testing.T) {
	s := testServer(t)
	form := url.Values{"anime_name": {"Nonexistent Show"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handleFormSubmit(w, req)

	// Degrades to a message on the page, never an error status.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No recommendations found") {
		t.Error("form should report the miss")
	}
}
