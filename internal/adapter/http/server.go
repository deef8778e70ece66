// Package http exposes the admin trigger endpoints alongside health,
// readiness, and metrics routes.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-watch/internal/domain"
	"github.com/couchcryptid/weather-watch/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReadinessFunc adapts a plain function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

// CheckReadiness calls f.
func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// IngestionRunner triggers ingestion runs.
type IngestionRunner interface {
	Run(ctx context.Context) (pipeline.IngestionSummary, error)
	RunLocation(ctx context.Context, locationID int64) (pipeline.IngestionSummary, error)
}

// AnalysisRunner triggers analysis runs.
type AnalysisRunner interface {
	Run(ctx context.Context) (pipeline.AnalysisSummary, error)
}

// Server exposes the admin trigger surface plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	ingestion  IngestionRunner
	analysis   AnalysisRunner
	secret     string
	logger     *slog.Logger
}

// NewServer creates the HTTP server. The admin routes require the shared
// secret; health, readiness, and metrics do not.
func NewServer(addr, secret string, ingestion IngestionRunner, analysis AnalysisRunner, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Admin runs fetch from the provider and may call inference;
			// give responses room to finish.
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		ingestion: ingestion,
		analysis:  analysis,
		secret:    secret,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /admin/run-ingestion", s.requireSecret(s.handleRunIngestion))
	mux.HandleFunc("POST /admin/run-analysis", s.requireSecret(s.handleRunAnalysis))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// requireSecret rejects requests whose secret query parameter does not match.
// The comparison is constant-time; beyond this gate handlers never see the
// secret again.
func (s *Server) requireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			s.logger.Warn("admin request rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRunIngestion(w http.ResponseWriter, r *http.Request) {
	var (
		summary pipeline.IngestionSummary
		err     error
	)
	if raw := r.URL.Query().Get("location_id"); raw != "" {
		id, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "location_id must be an integer"})
			return
		}
		summary, err = s.ingestion.RunLocation(r.Context(), id)
	} else {
		summary, err = s.ingestion.Run(r.Context())
	}
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("ingestion run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Status: summary.Status(), Ingestion: &summary})
}

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analysis.Run(r.Context())
	if err != nil {
		s.logger.Error("analysis run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Status: summary.Status(), Analysis: &summary})
}

type runResponse struct {
	Status    string                     `json:"status"`
	Ingestion *pipeline.IngestionSummary `json:"ingestion,omitempty"`
	Analysis  *pipeline.AnalysisSummary  `json:"analysis,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
