package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/recommend"
)

func (s *Server) handleRecommendAnime(w http.ResponseWriter, r *http.Request) {
	var query models.AnimeQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query.Limit = s.clampLimit(query.Limit)
	s.logger.Debug("anime recommend request", zap.String("name", query.Name), zap.Int("limit", query.Limit))

	start := time.Now()
	snap := s.provider.Current()
	results, err := snap.Anime.Recommend(r.Context(), query.Name, query.Limit)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			// A miss degrades to an empty list with suggestions, never a fault.
			s.logger.Info("anime not found", zap.String("name", query.Name))
			s.respondJSON(w, http.StatusOK, &models.AnimeResponse{
				Query:       query.Name,
				Results:     []models.RankedResult{},
				Suggestions: snap.Catalog.Suggest(query.Name, 3),
				QueryTime:   time.Since(start).Milliseconds(),
			})
			return
		}
		s.logger.Error("anime recommend failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.AnimeResponse{
		Query:     query.Name,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleRecommendHybrid(w http.ResponseWriter, r *http.Request) {
	var query models.HybridQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query.Limit = s.clampLimit(query.Limit)
	s.logger.Debug("hybrid recommend request", zap.Int64("user_id", query.UserID))

	start := time.Now()
	snap := s.provider.Current()
	results, err := snap.Hybrid.Recommend(r.Context(), query.UserID, recommend.HybridOptions{
		UserWeight:    query.UserWeight,
		ContentWeight: query.ContentWeight,
		TopKUsers:     query.TopKUsers,
		TopKContent:   query.TopKContent,
		Limit:         query.Limit,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			s.logger.Info("user not found", zap.Int64("user_id", query.UserID))
			s.respondJSON(w, http.StatusOK, &models.HybridResponse{
				UserID:    query.UserID,
				Results:   []models.HybridResult{},
				QueryTime: time.Since(start).Milliseconds(),
			})
			return
		}
		s.logger.Error("hybrid recommend failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.HybridResponse{
		UserID:    query.UserID,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleNameSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	limit = s.clampLimit(limit)
	results, err := s.provider.Current().Catalog.Search(q, limit)
	if err != nil {
		s.logger.Error("name search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Current()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot_id": snap.ID,
		"loaded_at":   snap.LoadedAt.UTC().Format(time.RFC3339),
		"animes":      snap.AnimeMatrix.Rows(),
		"users":       snap.UserMatrix.Rows(),
		"dimensions":  snap.AnimeMatrix.Dims(),
		"catalog":     snap.Catalog.Len(),
		"ratings":     snap.Ratings.Len(),
		"config": map[string]interface{}{
			"default_limit":  s.config.Recommend.DefaultLimit,
			"top_k_users":    s.config.Recommend.TopKUsers,
			"top_k_content":  s.config.Recommend.TopKContent,
			"user_weight":    s.config.Recommend.UserWeight,
			"content_weight": s.config.Recommend.ContentWeight,
			"artifacts_dir":  s.config.Artifacts.Dir,
			"watch_enabled":  s.config.Watch.Enabled,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clampLimit enforces the configured result cap on client-supplied limits.
func (s *Server) clampLimit(limit int) int {
	if max := s.config.Recommend.MaxLimit; max > 0 && limit > max {
		return max
	}
	return limit
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
