// Package metrics provides Prometheus instrumentation for the sabermetrics
// service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the collectors. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	fetchRequests *prometheus.CounterVec
	fetchRetries  prometheus.Counter
	fetchDuration prometheus.Histogram

	computations       *prometheus.CounterVec
	computationLatency *prometheus.HistogramVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager builds a Manager registered on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sabr",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	m.fetchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "fetch_requests_total",
		Help: "Outbound page fetches by final HTTP status (0 for network errors).",
	}, []string{"status"})
	m.fetchRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "fetch_retries_total",
		Help: "Retries issued after transient 5xx responses.",
	})
	m.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "fetch_duration_seconds",
		Help:    "Wall time of a fetch including retries.",
		Buckets: m.histogramBuckets,
	})
	m.computations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "computations_total",
		Help: "Metric computations by metric and outcome.",
	}, []string{"metric", "outcome"})
	m.computationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "computation_duration_seconds",
		Help:    "Wall time of a metric computation.",
		Buckets: m.histogramBuckets,
	}, []string{"metric"})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Inbound API requests by route and status.",
	}, []string{"route", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_seconds",
		Help:    "Inbound API request latency.",
		Buckets: m.histogramBuckets,
	}, []string{"route"})

	m.registry.MustRegister(
		m.fetchRequests, m.fetchRetries, m.fetchDuration,
		m.computations, m.computationLatency,
		m.httpRequests, m.httpRequestDuration,
	)
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFetch counts one fetch with its final status.
func (m *Manager) RecordFetch(status int, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// RecordRetry counts one retry.
func (m *Manager) RecordRetry() {
	if m == nil {
		return
	}
	m.fetchRetries.Inc()
}

// RecordComputation counts a metric computation. outcome is "ok" or an
// error class such as "player_not_found".
func (m *Manager) RecordComputation(metric, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(metric, outcome).Inc()
	m.computationLatency.WithLabelValues(metric).Observe(d.Seconds())
}

// RecordHTTPRequest counts an inbound API request.
func (m *Manager) RecordHTTPRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
