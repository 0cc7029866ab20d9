// Package ops provides the operational HTTP listener: liveness, readiness,
// and Prometheus metrics. The discovery engine itself has no HTTP API; this
// listener exists for orchestration platforms and scrapers.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/dataset-discovery-service/internal/database"
)

// readinessProbeTimeout bounds each individual readiness check.
const readinessProbeTimeout = 2 * time.Second

// Check is a named readiness probe. Probe returns nil when the dependency is
// reachable.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// DatabaseCheck probes the connection pool.
func DatabaseCheck(db *database.DB) Check {
	return Check{
		Name: "database",
		Probe: func(ctx context.Context) error {
			health := db.Health(ctx)
			if health.Status != "healthy" {
				return fmt.Errorf("database %s: %s", health.Status, health.Error)
			}
			return nil
		},
	}
}

// KafkaCheck probes broker connectivity by dialing the first broker.
func KafkaCheck(brokers []string) Check {
	return Check{
		Name: "kafka",
		Probe: func(ctx context.Context) error {
			if len(brokers) == 0 {
				return fmt.Errorf("no brokers configured")
			}
			conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
			if err != nil {
				return fmt.Errorf("dial broker %s: %w", brokers[0], err)
			}
			return conn.Close()
		},
	}
}

// Config holds the listener configuration.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the operational HTTP server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	registry   *prometheus.Registry
	checks     []Check
	logger     zerolog.Logger
}

// NewServer creates the listener. The registry backs /metrics; checks back
// /readyz and may be empty.
func NewServer(cfg Config, registry *prometheus.Registry, checks []Check, logger zerolog.Logger) *Server {
	s := &Server{
		registry: registry,
		checks:   checks,
		logger:   logger.With().Str("component", "ops_server").Logger(),
	}
	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// Start starts the listener and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("ops server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on ops address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler reports process liveness. It never consults dependencies.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler runs every configured probe and reports per-dependency
// status. Any failing probe makes the whole endpoint return 503.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	statuses := make(map[string]string, len(s.checks))
	ready := true

	for _, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
		err := check.Probe(ctx)
		cancel()
		if err != nil {
			statuses[check.Name] = err.Error()
			ready = false
			continue
		}
		statuses[check.Name] = "ok"
	}

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, readinessResponse{Status: "not_ready", Checks: statuses})
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{Status: "ready", Checks: statuses})
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// requestLogger logs each request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request handled")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent; nothing useful to do.
		_ = err
	}
}
