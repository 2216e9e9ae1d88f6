// Package metrics defines the Prometheus metrics of the threshold service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

const namespace = "thresh"

// Metrics holds every collector the service exports.
type Metrics struct {
	Evaluations  *prometheus.CounterVec   // evaluations per method
	Failures     *prometheus.CounterVec   // failed evaluations per method and error class
	Duration     *prometheus.HistogramVec // evaluation latency per method
	OutlierRatio *prometheus.HistogramVec // flagged fraction per method
	ScoreCount   prometheus.Histogram     // scores per request
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
}

// New registers the metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with registerer, so tests can use
// an isolated registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of threshold evaluations",
		}, []string{"method"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Total number of failed threshold evaluations",
		}, []string{"method", "class"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Threshold evaluation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"method"}),
		OutlierRatio: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outlier_ratio",
			Help:      "Fraction of scores labelled as outliers",
			Buckets:   prometheus.LinearBuckets(0, 0.05, 21),
		}, []string{"method"}),
		ScoreCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scores_per_evaluation",
			Help:      "Number of scores per evaluation",
			Buckets:   prometheus.ExponentialBuckets(2, 4, 10),
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of results served from the cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of results computed after a cache miss",
		}),
	}
}

// ErrorClass buckets an evaluation error for the failures counter.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, scoring.ErrValidation):
		return "validation"
	case errors.Is(err, scoring.ErrDegenerateInput):
		return "degenerate"
	case errors.Is(err, scoring.ErrAlgorithmFailure):
		return "algorithm"
	default:
		return "internal"
	}
}

// ObserveEvaluation records one evaluation.
func (m *Metrics) ObserveEvaluation(method string, size, outliers int, elapsed time.Duration, err error) {
	m.Evaluations.WithLabelValues(method).Inc()
	m.Duration.WithLabelValues(method).Observe(elapsed.Seconds())
	m.ScoreCount.Observe(float64(size))
	if err != nil {
		m.Failures.WithLabelValues(method, ErrorClass(err)).Inc()
		return
	}
	if size > 0 {
		m.OutlierRatio.WithLabelValues(method).Observe(float64(outliers) / float64(size))
	}
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheHits.Inc()
		return
	}
	m.CacheMisses.Inc()
}
