// Package metrics exposes Prometheus instrumentation for the group service
// and its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pkggroups"

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// that tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Store metrics
	Mutations     *prometheus.CounterVec
	Groups        prometheus.Gauge
	MetaGroups    prometheus.Gauge
	ApplyActions  *prometheus.CounterVec
	ApplyFailures prometheus.Counter

	// Event stream metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	WSConnections   prometheus.Gauge
}

// New creates a metrics collector with its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		Mutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_mutations_total",
				Help:      "Store mutations by operation and result",
			},
			[]string{"operation", "result"},
		),
		Groups: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_groups",
			Help:      "Number of groups in the store",
		}),
		MetaGroups: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_meta_groups",
			Help:      "Number of meta-groups in the store",
		}),
		ApplyActions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "apply_actions_total",
				Help:      "Registry enable/disable calls made by apply",
			},
			[]string{"action"},
		),
		ApplyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apply_failures_total",
			Help:      "Registry calls made by apply that failed",
		}),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Store events published to subscribers",
			},
			[]string{"type"},
		),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber was too slow",
		}),
		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open event stream connections",
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordMutation counts a store mutation.
func (m *Metrics) RecordMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Mutations.WithLabelValues(operation, result).Inc()
}

// SetSizes records the current number of groups and meta-groups.
func (m *Metrics) SetSizes(groups, metas int) {
	m.Groups.Set(float64(groups))
	m.MetaGroups.Set(float64(metas))
}

// Middleware records request counts and latency labelled by chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

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
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
