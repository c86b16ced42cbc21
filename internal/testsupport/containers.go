//go:build integration

// Package testsupport starts disposable infrastructure for integration tests.
package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaContainer "github.com/testcontainers/testcontainers-go/modules/kafka"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"example.com/gymcheckins/internal/database"
)

const (
	postgresImage = "postgres:16-alpine"
	kafkaImage    = "confluentinc/confluent-local:7.5.0"
)

// StartPostgres runs an empty Postgres container and returns its connection string.
func StartPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, postgresImage,
		postgrescontainer.WithDatabase("gymcheckins"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

// StartMigratedPostgres runs Postgres, applies the embedded migrations and returns a pool.
func StartMigratedPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	connStr := StartPostgres(t, ctx)

	pool, err := database.Connect(ctx, connStr, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(connStr))
	return pool
}

// StartKafka runs a single-node Kafka broker and returns its bootstrap addresses.
func StartKafka(t *testing.T, ctx context.Context) []string {
	t.Helper()

	kc, err := kafkaContainer.Run(ctx, kafkaImage, kafkaContainer.WithClusterID("gymcheckins"))
	testcontainers.CleanupContainer(t, kc)
	require.NoError(t, err)

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers
}
