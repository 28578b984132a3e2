// Package metrics exposes Prometheus metrics for the HTTP API, the note store and search.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "knowledge"

// Collector holds all Prometheus metrics of the application on its own registry.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	NoteOperations *prometheus.CounterVec

	Searches       *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
	StaleResponses prometheus.Counter
	ActiveSessions prometheus.Gauge
}

// New creates a collector with a fresh registry, so tests can create as many as they need.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		NoteOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "note_operations_total",
				Help:      "Total number of note store operations",
			},
			[]string{"operation", "status"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_requests_total",
				Help:      "Total number of search requests by outcome",
			},
			[]string{"outcome"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Time from dispatch to resolution of a search request",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		StaleResponses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_stale_responses_total",
				Help:      "Worker responses dropped because a newer search superseded them",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "search_sessions_active",
				Help:      "Number of open search sessions",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.NoteOperations,
		c.Searches,
		c.SearchDuration,
		c.StaleResponses,
		c.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the Prometheus registry of this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// SearchCompleted records the outcome and latency of a search request.
func (c *Collector) SearchCompleted(outcome string, d time.Duration) {
	c.Searches.WithLabelValues(outcome).Inc()
	c.SearchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// StaleResponse counts a dropped worker response.
func (c *Collector) StaleResponse() {
	c.StaleResponses.Inc()
}

// NoteOperation counts a note store operation.
func (c *Collector) NoteOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.NoteOperations.WithLabelValues(operation, status).Inc()
}

// SessionOpened increments the open session gauge.
func (c *Collector) SessionOpened() {
	c.ActiveSessions.Inc()
}

// SessionClosed decrements the open session gauge.
func (c *Collector) SessionClosed() {
	c.ActiveSessions.Dec()
}

// Middleware records request counts and latency by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
