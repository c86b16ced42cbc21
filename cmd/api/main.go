package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/gymcheckins/internal/api"
	"example.com/gymcheckins/internal/auth"
	"example.com/gymcheckins/internal/config"
	"example.com/gymcheckins/internal/database"
	"example.com/gymcheckins/internal/domain"
	"example.com/gymcheckins/internal/logger"
	"example.com/gymcheckins/internal/outbox"
	"example.com/gymcheckins/internal/persistence/memory"
	persistence "example.com/gymcheckins/internal/persistence/postgres"
	httptransport "example.com/gymcheckins/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel).With("service", "gymcheckins-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		gyms       domain.GymRepository
		checkIns   domain.CheckInRepository
		dispatcher *outbox.Dispatcher
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart and no events are published")
		gyms = memory.NewGymRepository(cfg.QueryLimits())
		checkIns = memory.NewCheckInRepository(cfg.QueryLimits())
	default:
		if cfg.RunMigrations {
			if err := database.RunMigrations(cfg.PostgresURL); err != nil {
				log.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
			log.Info("migrations applied")
		}

		pool, err := database.Connect(ctx, cfg.PostgresURL, 30*time.Second)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		gyms = persistence.NewGymRepository(pool, cfg.QueryLimits())
		checkIns = persistence.NewCheckInRepository(pool, cfg.QueryLimits())

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
			outbox.WithLogger(log.With("component", "outbox")),
			outbox.WithClaimLease(cfg.OutboxClaimLease),
			outbox.WithRetryBaseDelay(cfg.DLQBaseDelay),
		)
		go dispatcher.Start(ctx)
	}

	service := domain.NewService(gyms, checkIns,
		domain.WithLocation(cfg.Location),
		domain.WithRules(cfg.Rules()),
	)

	router := api.NewRouter(api.NewHandler(service, log), api.RouterConfig{
		Auth:   auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}),
		Logger: log,
	})
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), router)

	go func() {
		log.Info("gymcheckins api listening", "address", cfg.HTTPAddress, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
