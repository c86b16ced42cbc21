// Package observability holds the business metrics shared across workflows and repositories.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for check-in and validation counters.
const (
	OutcomeCreated          = "created"
	OutcomeValidated        = "validated"
	OutcomeInvalid          = "invalid"
	OutcomeNotFound         = "not_found"
	OutcomeMaxDistance      = "max_distance"
	OutcomeDuplicate        = "duplicate"
	OutcomeLate             = "late"
	OutcomeAlreadyValidated = "already_validated"
)

var (
	gymsCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "gyms",
		Name:      "created_total",
		Help:      "Number of gyms registered.",
	})

	checkInCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "checkins",
		Name:      "attempts_total",
		Help:      "Check-in attempts grouped by outcome.",
	}, []string{"outcome"})

	validationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "checkins",
		Name:      "validations_total",
		Help:      "Check-in validation attempts grouped by outcome.",
	}, []string{"outcome"})

	checkInPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gym_checkins",
		Subsystem: "persistence",
		Name:      "last_checkin_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent check-in written to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(gymsCreatedCounter, checkInCounter, validationCounter, checkInPersistGauge)
}

// RecordGymCreated counts a registered gym.
func RecordGymCreated() {
	gymsCreatedCounter.Inc()
}

// RecordCheckIn counts a check-in attempt by outcome.
func RecordCheckIn(outcome string) {
	checkInCounter.WithLabelValues(outcome).Inc()
}

// RecordValidation counts a validation attempt by outcome.
func RecordValidation(outcome string) {
	validationCounter.WithLabelValues(outcome).Inc()
}

// RecordCheckInPersisted updates the persistence watermark gauge.
func RecordCheckInPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	checkInPersistGauge.Set(float64(ts.Unix()))
}
