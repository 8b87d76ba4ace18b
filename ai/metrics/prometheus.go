// Package metrics exports rewrite metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "advancedpaste"
	subsystem = "rewrite"
)

// PrometheusExporter exports rewrite metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	active    prometheus.Gauge
	fallbacks prometheus.Counter
	files     prometheus.Counter
	saved     *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of rewrite requests",
		},
		[]string{"backend", "status"},
	)

	e.latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "latency_seconds",
			Help:      "Rewrite latency in seconds, both completion calls included",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"backend"},
	)

	e.failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Total number of failed rewrites by failure kind",
		},
		[]string{"kind"},
	)

	e.active = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active",
			Help:      "Number of rewrites in flight",
		},
	)

	e.fallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "filename_fallbacks_total",
			Help:      "Total number of rewrites that used the default filename",
		},
	)

	e.files = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "files_written_total",
			Help:      "Total number of output files materialized",
		},
	)

	e.saved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_saves_total",
			Help:      "Total number of prompt history save attempts",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		e.requests,
		e.latency,
		e.failures,
		e.active,
		e.fallbacks,
		e.files,
		e.saved,
	)

	return e
}

// RecordRewrite records a finished rewrite. failureKind is empty on success.
func (e *PrometheusExporter) RecordRewrite(backend string, latency time.Duration, failureKind string) {
	status := "success"
	if failureKind != "" {
		status = "error"
		e.failures.WithLabelValues(failureKind).Inc()
	}

	e.requests.WithLabelValues(backend, status).Inc()
	e.latency.WithLabelValues(backend).Observe(latency.Seconds())
}

// RecordFilenameFallback counts a rewrite that fell back to the default name.
func (e *PrometheusExporter) RecordFilenameFallback() {
	e.fallbacks.Inc()
}

// RecordFileWritten counts a materialized output file.
func (e *PrometheusExporter) RecordFileWritten() {
	e.files.Inc()
}

// RecordHistorySave records the outcome of a prompt history save.
// status is one of "created", "duplicate" or "error".
func (e *PrometheusExporter) RecordHistorySave(status string) {
	e.saved.WithLabelValues(status).Inc()
}

// IncActive marks a rewrite as started.
func (e *PrometheusExporter) IncActive() {
	e.active.Inc()
}

// DecActive marks a rewrite as finished.
func (e *PrometheusExporter) DecActive() {
	e.active.Dec()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
