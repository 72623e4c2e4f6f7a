package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeAccepted      = "accepted"
	OutcomeInvalid       = "invalid"
	OutcomeNoActiveRound = "no_active_round"
	OutcomeRateLimited   = "rate_limited"
	OutcomeError         = "error"
)

var (
	submissionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loto_ticket_submissions_total",
			Help: "Total ticket submissions by outcome",
		},
		[]string{"outcome"},
	)

	submissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loto_ticket_submission_duration_ms",
			Help:    "Ticket submission duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"outcome"},
	)
)

func RecordSubmission(outcome string, started time.Time) {
	submissionTotal.WithLabelValues(outcome).Inc()
	submissionDuration.WithLabelValues(outcome).Observe(float64(time.Since(started).Milliseconds()))
}
