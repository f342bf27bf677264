// Package metrics instruments the worker pool and detector/analytics call
// paths with Prometheus collectors: counters for detections emitted per
// signature type and outcome, a histogram of call latency, and a gauge of
// in-flight worker-pool tasks. Scoped to what the concurrency model in §5
// needs to observe, not a full tracing/exporter pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome names the terminal state of one detector/analytic call.
type Outcome string

const (
	OutcomeFired               Outcome = "fired"
	OutcomeSkippedMissingInput Outcome = "skipped_missing_input"
	OutcomeError               Outcome = "error"
)

// Registry bundles the collectors the engine registers on startup. A nil
// *Registry is safe to call methods on: every recorder is a no-op guard
// against nil so callers never have to branch on whether metrics are wired.
type Registry struct {
	detections      *prometheus.CounterVec
	callLatency     *prometheus.HistogramVec
	inFlightWorkers prometheus.Gauge
}

// NewRegistry creates and registers the collectors against reg. Passing
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manifold",
			Name:      "detections_total",
			Help:      "Detector and analytic calls by signature/analytic name and outcome.",
		}, []string{"name", "outcome"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "manifold",
			Name:      "call_duration_seconds",
			Help:      "Latency of detector and analytics calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),
		inFlightWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "manifold",
			Name:      "worker_pool_in_flight",
			Help:      "Number of worker-pool tasks currently executing.",
		}),
	}
	reg.MustRegister(r.detections, r.callLatency, r.inFlightWorkers)
	return r
}

// RecordDetection increments the detections counter for a signature or
// analytic name under the given outcome.
func (r *Registry) RecordDetection(name string, outcome Outcome) {
	if r == nil {
		return
	}
	r.detections.WithLabelValues(name, string(outcome)).Inc()
}

// ObserveLatency records how long a named call took.
func (r *Registry) ObserveLatency(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.callLatency.WithLabelValues(name).Observe(d.Seconds())
}

// WorkerStarted and WorkerFinished track the worker-pool in-flight gauge.
func (r *Registry) WorkerStarted() {
	if r == nil {
		return
	}
	r.inFlightWorkers.Inc()
}

func (r *Registry) WorkerFinished() {
	if r == nil {
		return
	}
	r.inFlightWorkers.Dec()
}

// Timer starts a latency measurement, returning a func that records it under name.
func (r *Registry) Timer(name string) func() {
	start := time.Now()
	return func() { r.ObserveLatency(name, time.Since(start)) }
}
