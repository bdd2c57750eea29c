// Package metrics exposes Prometheus collectors for the tracker service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal                *prometheus.CounterVec
	cycleDurationSeconds       prometheus.Histogram
	titleFetchesTotal          *prometheus.CounterVec
	snapshotSizeMB             prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		cyclesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_cycles_total",
				Help: "Total number of fetch cycles, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		cycleDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tracker_cycle_duration_seconds",
				Help:    "Histogram of end-to-end fetch cycle durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		)

		titleFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_title_fetches_total",
				Help: "Total number of title content fetches, labeled by result.",
			},
			[]string{"result"},
		)

		snapshotSizeMB = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tracker_snapshot_total_size_mb",
				Help: "Total regulation size in the current snapshot, in MB.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCycle records one completed fetch cycle.
func ObserveCycle(outcome string, duration time.Duration) {
	Init()
	cyclesTotal.WithLabelValues(outcome).Inc()
	cycleDurationSeconds.Observe(duration.Seconds())
}

// ObserveTitleFetch increments the per-title fetch counter.
func ObserveTitleFetch(result string) {
	Init()
	titleFetchesTotal.WithLabelValues(result).Inc()
}

// SetSnapshotSize records the total size of the last published snapshot.
func SetSnapshotSize(totalMB float64) {
	Init()
	snapshotSizeMB.Set(totalMB)
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
