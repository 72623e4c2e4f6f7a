package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundTransitionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loto_round_transitions_total",
			Help: "Round lifecycle operations by action and result",
		},
		[]string{"action", "result"},
	)

	roundTransitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loto_round_transition_duration_ms",
			Help:    "Round lifecycle operation duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"action"},
	)
)

// RecordRound records an open, close or publish call.
// result is "success", "noop", or "fail".
func RecordRound(action, result string, started time.Time) {
	roundTransitionTotal.WithLabelValues(action, result).Inc()
	roundTransitionDuration.WithLabelValues(action).Observe(float64(time.Since(started).Milliseconds()))
}
