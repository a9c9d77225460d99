// Package server provides the HTTP API exposing analyses, baselines and cache maintenance.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/vitals/internal/database"
	"github.com/aristath/vitals/internal/modules/analysis"
	"github.com/aristath/vitals/internal/modules/baselines"
)

// Analyzer runs analyses and remembers the latest one.
type Analyzer interface {
	Run(ctx context.Context, forceRefresh bool) *analysis.Analysis
	Latest() (*analysis.Analysis, bool)
}

// BaselineReader loads the persisted baseline.
type BaselineReader interface {
	Load(ctx context.Context) (*baselines.Baseline, error)
}

// CacheAdmin removes cache entries.
type CacheAdmin interface {
	Delete(key string) error
	Clear() (int64, error)
}

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	Port            int
	DevMode         bool
	DB              *database.DB
	Analyzer        Analyzer
	Baselines       BaselineReader
	Cache           CacheAdmin
	AnalysisTimeout time.Duration // bounds an analysis run triggered over HTTP
}

// Server represents the HTTP server
type Server struct {
	router          *chi.Mux
	server          *http.Server
	log             zerolog.Logger
	port            int
	db              *database.DB
	analyzer        Analyzer
	baselines       BaselineReader
	cache           CacheAdmin
	analysisTimeout time.Duration
	runs            singleflight.Group
	startedAt       time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 5 * time.Minute
	}

	s := &Server{
		router:          chi.NewRouter(),
		log:             cfg.Log.With().Str("component", "server").Logger(),
		port:            cfg.Port,
		db:              cfg.DB,
		analyzer:        cfg.Analyzer,
		baselines:       cfg.Baselines,
		cache:           cfg.Cache,
		analysisTimeout: cfg.AnalysisTimeout,
		startedAt:       time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AnalysisTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// analysis runs are bounded by analysisTimeout instead
		r.Get("/analysis", s.handleGetAnalysis)
		r.Post("/analysis/refresh", s.handleRefreshAnalysis)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			r.Get("/baselines", s.handleGetBaselines)
			r.Delete("/cache", s.handleClearCache)
			r.Delete("/cache/{key}", s.handleDeleteCacheEntry)
		})
	})
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops and returns
// nil after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
