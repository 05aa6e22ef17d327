// Package observability provides the diagnostic counters for the knowledge
// subsystem. The error-handling policy degrades every parse or lookup failure
// to an empty result, so these counters are the only machine-readable signal
// that degradation happened; a test harness can assert "zero silent failures"
// per run by scraping them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the Prometheus instruments for the knowledge subsystem.
// A nil *Metrics is valid and drops every observation.
type Metrics struct {
	registry *prometheus.Registry

	parseFailures *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	truncations   *prometheus.CounterVec
	detections    *prometheus.CounterVec
}

// NewMetrics registers the knowledge counters on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		parseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anketa_knowledge_parse_failures_total",
			Help: "Parse/IO failures silently degraded to empty results.",
		}, []string{"component"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anketa_knowledge_cache_hits_total",
			Help: "Profile cache hits within the TTL window.",
		}, []string{"cache"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anketa_knowledge_cache_misses_total",
			Help: "Profile cache misses or expired entries.",
		}, []string{"cache"}),
		truncations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anketa_knowledge_context_truncations_total",
			Help: "Assembled contexts cut down to the character budget.",
		}, []string{"kind"}),
		detections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anketa_knowledge_detections_total",
			Help: "Industry detection outcomes.",
		}, []string{"outcome"}),
	}
}

// Registry exposes the underlying registry so the host can mount it on its
// own scrape endpoint. The subsystem itself opens no ports.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ParseFailure records one silently degraded parse/IO failure.
func (m *Metrics) ParseFailure(component string) {
	if m == nil {
		return
	}
	m.parseFailures.WithLabelValues(component).Inc()
}

// ParseFailureCount returns the current failure count for a component.
// Used by tests to assert zero silent failures.
func (m *Metrics) ParseFailureCount(component string) float64 {
	if m == nil {
		return 0
	}
	counter, err := m.parseFailures.GetMetricWithLabelValues(component)
	if err != nil {
		return 0
	}
	return counterValue(counter)
}

// CacheHit records a fresh cache read.
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

// CacheMiss records an absent or expired cache read.
func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// Truncation records an over-budget context cut.
func (m *Metrics) Truncation(kind string) {
	if m == nil {
		return
	}
	m.truncations.WithLabelValues(kind).Inc()
}

// Detection records a classification outcome ("matched" or "none").
func (m *Metrics) Detection(outcome string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(outcome).Inc()
}

func counterValue(counter prometheus.Counter) float64 {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}
