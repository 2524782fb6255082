// Package server provides the HTTP API for dagit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/takeru911/dagster/internal/config"
	"github.com/takeru911/dagster/internal/metrics"
	"github.com/takeru911/dagster/internal/schedule"
	"github.com/takeru911/dagster/internal/search"
	"github.com/takeru911/dagster/internal/storage"
)

// VersionFunc probes the upstream dagit version for status reports.
type VersionFunc func(ctx context.Context) (string, error)

// Server is the HTTP server for the dagit API.
type Server struct {
	registry *schedule.Registry
	store    storage.Store
	config   *config.ServerConfig
	logger   *zap.Logger
	version  VersionFunc
	server   *http.Server

	configMu   sync.Mutex
	configPath string

	mu      sync.RWMutex
	session *search.Session
}

// NewServer creates a server with the given dependencies. store and
// version may be nil; the status report then omits cache size and
// upstream version.
func NewServer(
	session *search.Session,
	registry *schedule.Registry,
	store storage.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	version VersionFunc,
) *Server {
	return &Server{
		session:  session,
		registry: registry,
		store:    store,
		config:   cfg,
		logger:   logger,
		version:  version,
	}
}

// Router builds the chi router serving the API.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware())

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/schedules", s.handleScheduleList)
	r.Get("/api/v1/schedules/{location}/{repository}/{schedule}", s.handleScheduleRow)
	r.Get("/api/v1/status", s.handleStatus)
	r.Put("/api/v1/config/search", s.handleSearchConfigUpdate)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
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

// EnableConfigUpdates lets API clients persist setting changes to the
// config file at path. Saved changes reach the running server through the
// config watcher, or on the next start when no watcher is active.
func (s *Server) EnableConfigUpdates(path string) {
	s.configPath = path
}

// UpdateSession swaps the search session serving requests, returning the
// previous one so the caller can close it after the handoff.
func (s *Server) UpdateSession(next *search.Session) *search.Session {
	s.mu.Lock()
	prev := s.session
	s.session = next
	s.mu.Unlock()
	s.logger.Info("search session replaced")
	return prev
}

func (s *Server) currentSession() *search.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}
