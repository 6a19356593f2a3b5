// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handlerapi "github.com/newthinker/insight/internal/api/handler/api"
	"github.com/newthinker/insight/internal/api/middleware"
	"github.com/newthinker/insight/internal/insight"
	"github.com/newthinker/insight/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP boundary of the insight service
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	CacheControl string
	MetricsPath  string
	// WriteTimeout must exceed the request timeout so a slow generation
	// still gets its error response written.
	WriteTimeout time.Duration
}

// Dependencies holds everything the routes need.
type Dependencies struct {
	Explainer insight.Explainer
	Metrics   *metrics.Registry // nil disables /metrics and HTTP metrics
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Explainer == nil {
		return nil, fmt.Errorf("explainer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}
	routes := s.setupRoutes(cfg, deps)

	// Recover runs innermost: panics are logged and counted as 500s.
	mws := []func(http.Handler) http.Handler{
		metrics.LoggingMiddleware(logger),
	}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics, routes...))
	}
	mws = append(mws, middleware.Recover(logger))
	s.handler = middleware.Chain(s.mux, mws...)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes and returns their paths.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) []string {
	insightHandler := handlerapi.NewInsightHandler(deps.Explainer, cfg.CacheControl)

	s.mux.Handle("/api/v1/insight",
		middleware.AllowMethods(http.MethodGet)(http.HandlerFunc(insightHandler.Explain)))
	s.mux.Handle("/api/health",
		middleware.AllowMethods(http.MethodGet)(http.HandlerFunc(handlerapi.Health)))

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
		return []string{"/api/v1/insight", "/api/health", path}
	}
	return []string{"/api/v1/insight", "/api/health"}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
