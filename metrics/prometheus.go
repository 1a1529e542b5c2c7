// Package metrics provides a Prometheus-backed recorder for glimit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nootr/glimit/pkg/glimit"
)

// Recorder implements glimit.Recorder on top of Prometheus metrics.
// Decisions are labeled by outcome only; the key is dropped to keep metric
// cardinality independent of the number of clients.
type Recorder struct {
	decisions     *prometheus.CounterVec
	sweptBuckets  prometheus.Counter
	activeBuckets prometheus.Gauge
}

// NewRecorder creates a Recorder and registers its metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		decisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "glimit",
				Name:      "decisions_total",
				Help:      "Admission decisions by outcome.",
			},
			[]string{"outcome"}, // outcome=allow/deny
		),
		sweptBuckets: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "glimit",
				Name:      "swept_buckets_total",
				Help:      "Idle buckets reclaimed by the sweeper.",
			},
		),
		activeBuckets: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "glimit",
				Name:      "active_buckets",
				Help:      "Number of buckets currently tracked.",
			},
		),
	}
}

// RecordDecision counts one admission decision.
func (r *Recorder) RecordDecision(key string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	r.decisions.WithLabelValues(outcome).Inc()
}

// RecordSweep counts buckets removed by a sweep pass.
func (r *Recorder) RecordSweep(removed int) {
	r.sweptBuckets.Add(float64(removed))
}

// SetActiveBuckets tracks the registry size.
func (r *Recorder) SetActiveBuckets(n int) {
	r.activeBuckets.Set(float64(n))
}

var _ glimit.Recorder = (*Recorder)(nil)
