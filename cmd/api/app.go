package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aleisley/ta-backend/internal/config"
	"github.com/aleisley/ta-backend/internal/repository"
	"github.com/aleisley/ta-backend/internal/repository/memory"
	"github.com/aleisley/ta-backend/internal/repository/postgres"
	"github.com/aleisley/ta-backend/pkg/logger"
	"github.com/aleisley/ta-backend/pkg/messaging/redis"
	"github.com/aleisley/ta-backend/pkg/metrics"
	"github.com/aleisley/ta-backend/pkg/worker"
)

// app holds what every command builds from the configuration.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.Format == "json",
		Output:     os.Stdout,
	})
	log.SetGlobal()

	gin.SetMode(cfg.Server.Mode)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  metrics.New(cfg.Metrics.Namespace, registry),
	}, nil
}

func (a *app) openDB() (*sqlx.DB, error) {
	db, err := postgres.NewDB(a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.log.Info("connected to database",
		"host", a.cfg.Database.Host,
		"name", a.cfg.Database.Name)
	return db, nil
}

// openStore builds the configured store, creating the schema first unless
// skipMigrations is set.
func (a *app) openStore(ctx context.Context, skipMigrations bool) (repository.Store, error) {
	if a.cfg.Database.Driver == config.DriverMemory {
		a.log.Warn("using in-memory storage; data is lost on exit")
		return memory.NewStore(), nil
	}

	db, err := a.openDB()
	if err != nil {
		return nil, err
	}

	if !skipMigrations {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.log.Info("database schema is up to date")
	}

	return postgres.NewStore(db, a.metrics), nil
}

// relay wires the outbox processor and its cleanup worker to a Redis broker.
type relay struct {
	broker    *redis.Broker
	processor *worker.OutboxProcessor
	cleanup   *worker.OutboxCleanupWorker
}

func (a *app) newRelay(ctx context.Context, outbox repository.OutboxRepository) (*relay, error) {
	broker, err := redis.NewBroker(ctx, a.cfg.Redis.ToBrokerConfig(a.cfg.Outbox.ChannelPrefix), a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	processor, err := worker.NewOutboxProcessor(outbox, broker, a.cfg.Outbox.ToWorkerConfig(), a.log, a.metrics)
	if err != nil {
		broker.Close()
		return nil, err
	}

	return &relay{
		broker:    broker,
		processor: processor,
		cleanup:   worker.NewOutboxCleanupWorker(outbox, a.cfg.Outbox.Retention, time.Hour, a.log),
	}, nil
}

// run blocks until ctx is done.
func (r *relay) run(ctx context.Context) {
	go r.cleanup.Start(ctx)
	r.processor.Start(ctx)
}

func (r *relay) Close() error {
	return r.broker.Close()
}
