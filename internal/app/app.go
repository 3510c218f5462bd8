// Package app wires the service's dependencies from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/api"
	"github.com/abdul-hamid-achik/mediaswap/internal/assets"
	"github.com/abdul-hamid-achik/mediaswap/internal/config"
	"github.com/abdul-hamid-achik/mediaswap/internal/db"
	"github.com/abdul-hamid-achik/mediaswap/internal/health"
	"github.com/abdul-hamid-achik/mediaswap/internal/jobs"
	"github.com/abdul-hamid-achik/mediaswap/internal/metrics"
	"github.com/abdul-hamid-achik/mediaswap/internal/pipeline"
	"github.com/abdul-hamid-achik/mediaswap/internal/staging"
	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config   *config.Config
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Storage  *storage.MinIOStorage
	Assets   *assets.Adapter
	Jobs     *jobs.PostgresStore
	Staging  *staging.Area
	Pipeline *pipeline.Pipeline
	Health   *health.Checker
	Limiter  api.Limiter

	closers []func()
}

// New connects to every backing service and builds the pipeline. Callers
// must Close the returned App.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (a *App, err error) {
	a = &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	log.Info("connecting to database")
	a.Pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, a.Pool.Close)

	if err := a.Pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	queries := db.New(a.Pool, cfg.JobsTable)
	a.Jobs = jobs.NewPostgresStore(queries)
	log.Info("database connected", "jobs_table", queries.Table())

	log.Info("connecting to object storage")
	a.Storage, err = storage.NewMinIOStorage(&storage.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
		Region:    cfg.MinIORegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	if err := a.Storage.EnsureBucket(ctx, cfg.ResultBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure result bucket: %w", err)
	}
	a.Assets = assets.NewAdapter(metrics.NewInstrumentedStorage(a.Storage), assets.Buckets{
		Source: cfg.SourceBucket,
		Target: cfg.TargetBucket,
		Result: cfg.ResultBucket,
	})
	log.Info("object storage connected")

	if cfg.RedisURL != "" {
		log.Info("connecting to redis")
		redisOpt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		a.Redis = redis.NewClient(redisOpt)
		a.closers = append(a.closers, func() { _ = a.Redis.Close() })

		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Limiter = api.NewRedisRateLimiter(a.Redis, cfg.RateLimitPerMinute, time.Minute)
	} else {
		log.Warn("REDIS_URL not set, using in-process rate limiting")
		a.Limiter = api.NewMemoryRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	a.Staging, err = staging.NewArea(cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare staging area: %w", err)
	}
	log.Info("staging area ready", "root", a.Staging.Root())

	registry, engineOptions, err := RegisterEngines(cfg, log)
	if err != nil {
		return nil, err
	}
	transformer, err := registry.GetOrError(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("engine %q unavailable: %w", cfg.Engine, err)
	}
	log.Info("engine ready", "engine", transformer.Name(), "registered", registry.List())

	a.Pipeline, err = pipeline.New(pipeline.Config{
		Jobs:        a.Jobs,
		Assets:      a.Assets,
		Transformer: transformer,
		Staging:     a.Staging,
		Previewer:   newPreviewer(cfg, log),
		Observer:    metrics.NewPipelineCollector(transformer.Name()),
		EngineExtra: engineOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	root := a.Staging.Root()
	a.Health = health.NewChecker(a.Pool, a.Redis).
		WithStorage(a.Storage).
		WithCheck("staging", func(ctx context.Context) error {
			_, err := os.Stat(root)
			return err
		})

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
