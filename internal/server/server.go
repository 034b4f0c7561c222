// Package server provides the HTTP API for Kokoro.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/analysis"
	"github.com/healinggarden/kokoro/internal/config"
	"github.com/healinggarden/kokoro/internal/profile"
	"github.com/healinggarden/kokoro/internal/search"
	"github.com/healinggarden/kokoro/internal/store"
	"github.com/healinggarden/kokoro/internal/vector"
)

// Server is the HTTP server for the Kokoro API.
type Server struct {
	searcher   *search.Service
	aggregator *profile.Aggregator
	store      store.Store
	index      vector.Index
	analyzer   analysis.SentimentAnalyzer
	summarizer analysis.Summarizer
	questions  *analysis.QuestionGenerator
	config     *config.Config
	redis      *redis.Client
	logger     *zap.Logger
	server     *http.Server
}

// Deps bundles the services the server is built from. Redis is optional
// and enables the rate limiter when set.
type Deps struct {
	Searcher   *search.Service
	Aggregator *profile.Aggregator
	Store      store.Store
	Index      vector.Index
	Analyzer   analysis.SentimentAnalyzer
	Summarizer analysis.Summarizer
	Questions  *analysis.QuestionGenerator
	Redis      *redis.Client
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		searcher:   deps.Searcher,
		aggregator: deps.Aggregator,
		store:      deps.Store,
		index:      deps.Index,
		analyzer:   deps.Analyzer,
		summarizer: deps.Summarizer,
		questions:  deps.Questions,
		config:     cfg,
		redis:      deps.Redis,
		logger:     logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.Server.APIKey != "" {
			r.Use(s.apiKeyMiddleware(s.config.Server.APIKey))
		}
		if s.redis != nil {
			r.Use(s.rateLimitMiddleware(60, time.Minute))
		}

		r.Post("/embeddings", s.handleEmbed)
		r.Post("/search/semantic", s.handleSearch)
		r.Post("/sentiment", s.handleSentiment)
		r.Post("/analysis/emotional", s.handleEmotionalAnalysis)
		r.Post("/summarize", s.handleSummarize)
		r.Post("/questions", s.handleQuestions)
		r.Post("/entries", s.handleCreateEntry)
		r.Get("/entries/{id}", s.handleGetEntry)
		r.Delete("/entries/{id}", s.handleDeleteEntry)
		r.Get("/profile/{userID}", s.handleGetProfile)
		r.Post("/profile/{userID}/refresh", s.handleRefreshProfile)
		r.Get("/status", s.handleStatus)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
