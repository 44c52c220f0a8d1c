// Package metrics exposes calculation counters and timings for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the calculations counter.
const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Recorder owns a private registry so that several servers in one process
// (as in tests) do not collide.
type Recorder struct {
	registry     *prometheus.Registry
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheHits    prometheus.Counter
	reviews      prometheus.Histogram
}

// New builds a Recorder with process and Go runtime collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cabida",
			Name:      "calculations_total",
			Help:      "Cabida calculations by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cabida",
			Name:      "calculation_duration_seconds",
			Help:      "Time spent computing a cabida, excluding cache hits.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"endpoint"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cabida",
			Name:      "cache_hits_total",
			Help:      "Calculations answered from history.",
		}),
		reviews: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cabida",
			Name:      "review_score",
			Help:      "Distribution of compliance review scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	r.registry.MustRegister(
		r.calculations,
		r.duration,
		r.cacheHits,
		r.reviews,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveCalculation counts one calculation and records how long it took.
func (r *Recorder) ObserveCalculation(endpoint, outcome string, elapsed time.Duration) {
	r.calculations.WithLabelValues(endpoint, outcome).Inc()
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveCacheHit counts a calculation served from history.
func (r *Recorder) ObserveCacheHit(endpoint, outcome string) {
	r.cacheHits.Inc()
	r.calculations.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveReview records a review score.
func (r *Recorder) ObserveReview(score int) {
	r.reviews.Observe(float64(score))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
