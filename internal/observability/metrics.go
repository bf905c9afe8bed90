package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	signupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "roster",
		Name:      "signups_total",
		Help:      "Signup attempts grouped by outcome.",
	}, []string{"outcome"})

	removalCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "roster",
		Name:      "removals_total",
		Help:      "Removal attempts grouped by outcome.",
	}, []string{"outcome"})

	lastMutationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activities_service",
		Subsystem: "roster",
		Name:      "last_mutation_timestamp_seconds",
		Help:      "Unix timestamp of the most recent roster mutation.",
	})
)

func init() {
	prometheus.MustRegister(signupCounter, removalCounter, lastMutationGauge)
}

// RecordSignup counts a signup attempt by outcome ("ok", "activity_not_found", ...).
func RecordSignup(outcome string) {
	signupCounter.WithLabelValues(outcome).Inc()
}

// RecordRemoval counts a removal attempt by outcome.
func RecordRemoval(outcome string) {
	removalCounter.WithLabelValues(outcome).Inc()
}

// RecordRosterMutation updates the mutation watermark gauge.
func RecordRosterMutation(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastMutationGauge.Set(float64(ts.Unix()))
}
