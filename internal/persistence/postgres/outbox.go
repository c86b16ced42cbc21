// Package postgres provides pgx-backed repositories that record outbox events
// in the same transaction as the state change.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/gymcheckins/internal/events"
)

const uniqueViolation = "23505"

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeGymCreated: {
		Topic:         events.TopicGymEvents,
		SchemaSubject: events.TopicGymEvents + "-value",
	},
	events.TypeCheckInCreated: {
		Topic:         events.TopicCheckInEvents,
		SchemaSubject: events.TopicCheckInEvents + "-value",
	},
	events.TypeCheckInValidated: {
		Topic:         events.TopicCheckInEvents,
		SchemaSubject: events.TopicCheckInEvents + "-value",
	},
}

type outboxEvent struct {
	AggregateType string
	AggregateID   string
	EventType     string
	PartitionKey  string
	Payload       any
}

func insertOutbox(ctx context.Context, tx pgx.Tx, event outboxEvent) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[event.EventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", event.EventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", event.AggregateID, event.EventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		meta.Topic,
		meta.SchemaSubject,
		event.PartitionKey,
		body,
		dedupeKey,
	)
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

type scanner interface {
	Scan(dest ...any) error
}
