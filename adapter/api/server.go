// Package api provides the HTTP surface of the rota scheduling
// service: scheduling operations, directory CRUD, availability
// versions and the settings singleton, all sharing one response
// envelope.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/domicare/rota/pkg/observability"
)

// ReadinessCheck reports whether the server's dependencies (database,
// mainly) can take traffic.
type ReadinessCheck func(ctx context.Context) error

// Handlers aggregates the endpoint handlers the server mounts.
type Handlers struct {
	Scheduling   *SchedulingHandler
	Directory    *DirectoryHandler
	Availability *AvailabilityHandler
	Settings     *SettingsHandler
}

// Monitor bundles the operational surfaces served beside the API:
// readiness, per-dependency health, and the metrics snapshot. Nil
// fields leave the matching endpoint on a static fallback or unmounted.
type Monitor struct {
	Ready   ReadinessCheck
	Health  *observability.HealthRegistry
	Metrics *observability.InMemoryMetrics
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	JWTSecret    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ExposePanics puts panic values and stacks in 500 response bodies.
	// Development only.
	ExposePanics bool
}

// DefaultServerConfig returns the default server configuration. An
// empty JWTSecret leaves the bearer-token middleware off.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the HTTP API server.
type Server struct {
	router *chi.Mux
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and mounts all routes.
func NewServer(cfg ServerConfig, handlers Handlers, monitor Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(CorrelationID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger, cfg.ExposePanics))

	r.Get("/healthz", handleHealth(monitor.Health))
	r.Get("/readyz", handleReady(monitor.Ready, logger))
	if monitor.Metrics != nil {
		r.Get("/metrics", handleMetrics(monitor.Metrics))
	}

	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(BearerAuth(cfg.JWTSecret))
		}

		if handlers.Scheduling != nil {
			r.Route("/schedule", handlers.Scheduling.Routes)
		}
		if handlers.Directory != nil {
			r.Route("/care-receivers", handlers.Directory.CareReceiverRoutes)
		}
		if handlers.Directory != nil || handlers.Availability != nil {
			r.Route("/care-givers", func(r chi.Router) {
				if handlers.Directory != nil {
					handlers.Directory.CareGiverRoutes(r)
				}
				if handlers.Availability != nil {
					handlers.Availability.Routes(r)
				}
			})
		}
		if handlers.Settings != nil {
			r.Route("/settings", handlers.Settings.Routes)
		}
	})

	s := &Server{
		router: r,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// handleHealth grades every registered dependency. Degraded still
// answers 200: the service works, just with reduced quality, and a
// restart will not fix a missing optional dependency.
func handleHealth(health *observability.HealthRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			writeData(w, http.StatusOK, map[string]string{
				"status": "healthy",
				"time":   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		overall := health.GetOverallHealth(r.Context())
		status := http.StatusOK
		if overall.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeData(w, status, overall)
	}
}

func handleReady(ready ReadinessCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				logger.Warn("readiness check failed", "error", err)
				writeError(w, http.StatusServiceUnavailable, codeInternal, "dependencies not ready")
				return
			}
		}
		writeData(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleMetrics(metrics *observability.InMemoryMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, metrics.Snapshot())
	}
}
