// Package server implements the HTTP servers for health checks and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker interface for checking component health.
type HealthChecker interface {
	Liveness() bool
	Readiness(ctx context.Context) bool
	GetStatus() map[string]string
}

// Config holds listen ports and routes.
type Config struct {
	HealthPort     int
	LivenessPath   string
	ReadinessPath  string
	MetricsEnabled bool
	MetricsPort    int
	MetricsPath    string
}

// Server represents the HTTP server for health and metrics.
type Server struct {
	healthServer  *http.Server
	metricsServer *http.Server
	logger        *slog.Logger
}

// NewServer creates a new HTTP server. The metrics server is omitted when
// metrics are disabled.
func NewServer(
	config Config,
	healthChecker HealthChecker,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	s := &Server{
		healthServer: newHTTPServer(config.HealthPort, HealthHandler(config, healthChecker, logger)),
		logger:       logger,
	}
	if config.MetricsEnabled {
		s.metricsServer = newHTTPServer(config.MetricsPort, MetricsHandler(config, registry))
	}
	return s
}

// HealthHandler routes the liveness and readiness probes.
func HealthHandler(config Config, checker HealthChecker, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(pathOr(config.LivenessPath, "/health/live"), LivenessHandler(checker, logger))
	mux.HandleFunc(pathOr(config.ReadinessPath, "/health/ready"), ReadinessHandler(checker, logger))
	return mux
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func MetricsHandler(config Config, registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(pathOr(config.MetricsPath, "/metrics"), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Start starts the HTTP servers in the background.
func (s *Server) Start() {
	for name, srv := range s.servers() {
		go func() {
			s.logger.Info("starting "+name+" server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error(name+" server failed", "error", err)
			}
		}()
	}
}

// Shutdown gracefully shuts down both servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP servers")

	servers := s.servers()
	errChan := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			errChan <- srv.Shutdown(ctx)
		}()
	}

	var errs []error
	for range servers {
		if err := <-errChan; err != nil {
			s.logger.Error("error shutting down server", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) servers() map[string]*http.Server {
	servers := map[string]*http.Server{"health": s.healthServer}
	if s.metricsServer != nil {
		servers["metrics"] = s.metricsServer
	}
	return servers
}
