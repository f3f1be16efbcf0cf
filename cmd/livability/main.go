package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	httpadapter "github.com/couchcryptid/district-livability-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/district-livability-service/internal/adapter/kafka"
	"github.com/couchcryptid/district-livability-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/district-livability-service/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/district-livability-service/internal/adapter/redis"
	"github.com/couchcryptid/district-livability-service/internal/config"
	"github.com/couchcryptid/district-livability-service/internal/directory"
	"github.com/couchcryptid/district-livability-service/internal/eventbus"
	"github.com/couchcryptid/district-livability-service/internal/forecast"
	"github.com/couchcryptid/district-livability-service/internal/health"
	"github.com/couchcryptid/district-livability-service/internal/observability"
	"github.com/couchcryptid/district-livability-service/internal/pipeline"
	"github.com/couchcryptid/district-livability-service/internal/ranking"
	"github.com/couchcryptid/district-livability-service/internal/travel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close() //nolint:errcheck // process is exiting

	districts := directory.New(store, redisadapter.NewDistrictCache(rdb), cfg.DistrictCacheTTL, logger)
	forecastCache := redisadapter.NewForecastCache(rdb)
	leaderboard := redisadapter.NewLeaderboardStore(rdb)

	elector := redisadapter.NewLeaderElector(rdb, leaseOwner())

	ranker := ranking.New(
		elector,
		store,
		districts,
		leaderboard,
		store,
		ranking.Lease{Name: cfg.LeaseName, TTL: cfg.LeaseTTL},
		clock,
		logger,
		metrics,
	)
	persister := forecast.NewPersister(store, forecastCache, districts, cfg.ForecastCacheTTL, logger, metrics)

	bus := eventbus.New(logger, metrics)
	bus.Subscribe("ranking", ranker.HandleBatch)
	bus.Subscribe("forecasts", persister.HandleBatch)

	var (
		publisher pipeline.Publisher = bus
		reader    *kafkaadapter.Reader
		writer    *kafkaadapter.Writer
	)
	if cfg.EventTransport == config.TransportKafka {
		writer = kafkaadapter.NewWriter(cfg, logger)
		reader = kafkaadapter.NewReader(cfg, bus, logger)
		publisher = writer
	}
	logger.Info("event transport selected", "transport", cfg.EventTransport)

	provider := openmeteo.NewClient(openmeteo.Options{
		ForecastURL:   cfg.ForecastURL,
		AirQualityURL: cfg.AirQualityURL,
		Timeout:       cfg.ProviderTimeout,
		Retry: openmeteo.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			MaxJitter:   cfg.RetryMaxJitter,
		},
	}, clock, metrics, logger)

	p := pipeline.New(districts, provider, publisher, elector, pipeline.Options{
		TargetUTCHour: cfg.TargetUTCHour,
		Concurrency:   cfg.FetchConcurrency,
		Interval:      cfg.FetchInterval,
		LeaseName:     cfg.FetchLeaseName,
		LeaseTTL:      cfg.FetchLeaseTTL,
	}, clock, logger, metrics)

	orchestrator := travel.NewOrchestrator(
		travel.NewResolver(districts),
		districts,
		forecast.NewLookup(forecastCache, store, cfg.ForecastCacheTTL, logger, metrics),
		cfg.ForecastHorizonDays,
		clock,
		logger,
		metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, ranker, orchestrator,
		health.NewChecker(store, rdb, clock, logger), clock, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start batch consumer.
	if reader != nil {
		go func() {
			if err := reader.Run(ctx); err != nil {
				logger.Error("kafka reader error", "error", err)
			}
		}()
	}

	// Start fetch pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// leaseOwner identifies this instance in the ranking lease.
func leaseOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString())
}
