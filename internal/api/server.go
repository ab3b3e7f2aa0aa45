// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlerapi "github.com/newthinker/sentinel/internal/api/handler/api"
	"github.com/newthinker/sentinel/internal/api/job"
	"github.com/newthinker/sentinel/internal/api/middleware"
	"github.com/newthinker/sentinel/internal/api/response"
	"github.com/newthinker/sentinel/internal/metrics"
)

// Server represents the HTTP server for SENTINEL
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Runner
}

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	APIKey     string
	MaxJobs    int
	JobTTL     time.Duration
	JobTimeout time.Duration
	// MetricsPath is where Prometheus metrics are served, default /metrics.
	MetricsPath string
}

// Dependencies holds what the handlers run against.
type Dependencies struct {
	Runner   handlerapi.Runner
	Defaults handlerapi.Defaults
	Metrics  *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Runner == nil {
		return nil, fmt.Errorf("server requires a runner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
		jobs:   job.NewRunner(job.NewStore(cfg.MaxJobs, cfg.JobTTL), cfg.JobTimeout, logger, deps.Metrics),
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	if deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	auth := middleware.APIKeyAuth(cfg.APIKey)
	backtests := handlerapi.NewBacktestHandler(s.jobs, deps.Runner, deps.Defaults)
	research := handlerapi.NewResearchHandler(s.jobs, deps.Runner, deps.Defaults)
	jobs := handlerapi.NewJobsHandler(s.jobs.Store())

	s.mux.Handle("POST /api/v1/backtests", auth(http.HandlerFunc(backtests.Create)))
	s.mux.Handle("POST /api/v1/research", auth(http.HandlerFunc(research.Create)))
	s.mux.Handle("GET /api/v1/jobs", auth(http.HandlerFunc(jobs.List)))
	s.mux.Handle("GET /api/v1/jobs/{id}", auth(http.HandlerFunc(jobs.Get)))
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and waits for running jobs
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
