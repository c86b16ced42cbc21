package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultRetryBaseDelay = time.Minute

// DLQWriter persists events that could not be delivered.
type DLQWriter struct {
	pool      *pgxpool.Pool
	baseDelay time.Duration
}

// NewDLQWriter initialises a writer backed by the provided connection pool.
// baseDelay seeds the backoff applied to events that already failed before.
func NewDLQWriter(pool *pgxpool.Pool, baseDelay time.Duration) *DLQWriter {
	if baseDelay <= 0 {
		baseDelay = defaultRetryBaseDelay
	}
	return &DLQWriter{pool: pool, baseDelay: baseDelay}
}

// Write parks a failed outbox message in the DLQ. The entry inherits the
// message's attempt count, so the retry limit spans every replay. A first
// failure is due immediately; later ones wait out the backoff.
func (w *DLQWriter) Write(ctx context.Context, msg Message, reason string) error {
	var delay time.Duration
	if msg.Attempts > 0 {
		delay = retryBackoff(w.baseDelay, msg.Attempts)
	}

	_, err := w.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key,
                                 retry_count, last_attempt_at, next_retry_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW(), NOW() + make_interval(secs => $11))`,
		msg.EventID, msg.EventType, msg.Topic, msg.Payload, reason, msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
		msg.Attempts, delay.Seconds(),
	)
	return err
}

// retryBackoff doubles base for every attempt after the first, capped at maxDLQBackoff.
func retryBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDLQBackoff {
			return maxDLQBackoff
		}
	}
	return min(delay, maxDLQBackoff)
}
