// Package server provides the HTTP API and web form for the recommender.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/artifacts"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/config"
)

// Server is the HTTP server for the recommendation API.
type Server struct {
	provider *artifacts.Provider
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(provider *artifacts.Provider, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		provider: provider,
		config:   cfg,
		logger:   logger,
		metrics:  newMetrics(),
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.metrics.middleware)

	r.Get("/", s.handleForm)
	r.Post("/", s.handleFormSubmit)
	r.Post("/api/v1/recommend/anime", s.handleRecommendAnime)
	r.Post("/api/v1/recommend/hybrid", s.handleRecommendHybrid)
	r.Get("/api/v1/animes/search", s.handleNameSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
