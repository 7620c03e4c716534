// Package metrics defines the Prometheus collectors for query evaluation and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vsm/internal/domain"
)

// Metrics holds all collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal        *prometheus.CounterVec
	QueryDuration       prometheus.Histogram
	ResultsCount        prometheus.Histogram
	IntegrityViolations prometheus.Counter
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vsm_queries_total",
				Help: "Queries evaluated, by outcome (match, empty, error).",
			},
			[]string{"outcome"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vsm_query_duration_seconds",
				Help:    "Query evaluation latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		ResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vsm_results_count",
				Help:    "Number of documents returned per query.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		IntegrityViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_integrity_violations_total",
				Help: "Matched documents whose norm or score was unusable.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_cache_hits_total",
				Help: "Query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vsm_cache_misses_total",
				Help: "Query cache misses.",
			},
		),
	}

	m.registry.MustRegister(
		m.QueriesTotal,
		m.QueryDuration,
		m.ResultsCount,
		m.IntegrityViolations,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IntegrityViolation implements retriever.Observer.
func (m *Metrics) IntegrityViolation(*domain.IntegrityError) {
	m.IntegrityViolations.Inc()
}

// ObserveQuery records one evaluated query.
func (m *Metrics) ObserveQuery(elapsed time.Duration, results int, err error) {
	m.QueryDuration.Observe(elapsed.Seconds())
	switch {
	case err != nil:
		m.QueriesTotal.WithLabelValues("error").Inc()
		return
	case results == 0:
		m.QueriesTotal.WithLabelValues("empty").Inc()
	default:
		m.QueriesTotal.WithLabelValues("match").Inc()
	}
	m.ResultsCount.Observe(float64(results))
}

func (m *Metrics) CacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) CacheMiss() {
	m.CacheMissesTotal.Inc()
}
