package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for each DLQ entry the manager handles.
const (
	dlqOutcomeReplayed       = "replayed"
	dlqOutcomeRetryScheduled = "retry_scheduled"
	dlqOutcomeQuarantined    = "quarantined"
)

var (
	deliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Gym and check-in events published to Kafka.",
	})

	failedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Gym and check-in events that could not be published and were parked in the DLQ.",
	})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gym_checkins",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent claiming, publishing and settling one outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "outbox",
		Name:      "events_dlq_total",
		Help:      "Events parked in the DLQ, by topic.",
	}, []string{"topic"})

	dlqOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym_checkins",
		Subsystem: "dlq",
		Name:      "entries_handled_total",
		Help:      "DLQ entries handled by the replay loop, by event type and outcome (replayed, retry_scheduled, quarantined).",
	}, []string{"event_type", "outcome"})

	dlqBacklog = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gym_checkins",
		Subsystem: "dlq",
		Name:      "backlog_entries",
		Help:      "DLQ entries still awaiting replay; quarantined entries are excluded.",
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, batchDuration, dlqCounter, dlqOutcomes, dlqBacklog)
}

func recordDLQOutcome(entry dlqEntry, outcome string) {
	dlqOutcomes.WithLabelValues(entry.EventType, outcome).Inc()
}

func refreshDLQBacklog(ctx context.Context, pool *pgxpool.Pool) {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&count); err != nil {
		return
	}
	dlqBacklog.Set(float64(count))
}
