// Package api exposes the read-only HTTP interface over the current
// snapshot.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/metrics"
	"github.com/fedreg/ecfr-tracker/internal/scheduler"
	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// RefreshService is the slice of the scheduler the API needs: enough to
// fire a refresh and report status, nothing more.
type RefreshService interface {
	Trigger()
	Status() scheduler.Status
}

// Server wires HTTP handlers to the snapshot store and scheduler.
// Handlers never block on network calls; they only read the current
// snapshot.
type Server struct {
	router  chi.Router
	store   tracker.SnapshotStore
	refresh RefreshService
	clock   tracker.Clock
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store tracker.SnapshotStore,
	refresh RefreshService,
	clock tracker.Clock,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:   store,
		refresh: refresh,
		clock:   clock,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/", s.dashboard)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/agencies", s.getAgencies)
		r.Get("/agencies/{code}", s.getAgency)
		r.Get("/stats", s.getStats)
		r.Post("/refresh", s.triggerRefresh)
		r.Get("/scheduler/status", s.schedulerStatus)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) dashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(dashboardHTML)); err != nil {
		s.logger.Error("dashboard write failed", zap.Error(err))
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.store.Current()
	status := "healthy"
	var lastUpdate *string
	if ok {
		lastUpdate = &snap.LastSync
	} else {
		status = "degraded"
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"status":           status,
		"version":          Version,
		"last_data_update": lastUpdate,
		"timestamp":        tracker.FormatTime(s.clock.Now()),
	})
}

func (s *Server) getAgencies(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.store.Current()
	if !ok {
		s.writeUnavailable(w)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, snap)
}

func (s *Server) getAgency(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.Current()
	if !ok {
		s.writeUnavailable(w)
		return
	}
	code := chi.URLParam(r, "code")
	agency, found := snap.Agency(code)
	if !found {
		writeError(w, s.logger, http.StatusNotFound, "Not Found",
			"Agency with code '"+code+"' not found")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, agency)
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.store.Current()
	if !ok {
		s.writeUnavailable(w)
		return
	}

	// Agencies are sorted descending by size, so largest and smallest
	// sit at the ends.
	var largest, smallest *tracker.AgencyRecord
	average := 0.0
	if len(snap.Agencies) > 0 {
		largest = &snap.Agencies[0]
		smallest = &snap.Agencies[len(snap.Agencies)-1]
		average = tracker.RoundMB(snap.TotalSizeMB / float64(len(snap.Agencies)))
	}

	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"total_agencies":  snap.TotalAgencies,
		"total_size_mb":   snap.TotalSizeMB,
		"largest_agency":  largest,
		"smallest_agency": smallest,
		"average_size_mb": average,
		"last_sync":       snap.LastSync,
	})
}

// triggerRefresh is fire-and-forget: it hands the request to the
// scheduler and returns immediately regardless of outcome.
func (s *Server) triggerRefresh(w http.ResponseWriter, _ *http.Request) {
	s.refresh.Trigger()
	writeJSON(w, s.logger, http.StatusAccepted, map[string]string{
		"message":   "Data refresh triggered",
		"status":    "processing",
		"timestamp": tracker.FormatTime(s.clock.Now()),
	})
}

func (s *Server) schedulerStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.refresh.Status())
}

func (s *Server) writeUnavailable(w http.ResponseWriter) {
	writeError(w, s.logger, http.StatusServiceUnavailable, "Service Unavailable",
		"Data not available. Initial data fetch may be in progress.")
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, s.logger, http.StatusInternalServerError,
					"Internal Server Error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, errType, msg string) {
	writeJSON(w, logger, status, map[string]string{
		"error":   errType,
		"message": msg,
	})
}
