package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/abdul-hamid-achik/mediaswap/internal/config"
	"github.com/abdul-hamid-achik/mediaswap/internal/db"
	"github.com/abdul-hamid-achik/mediaswap/internal/jobs"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// loadConfig reads the service configuration and installs a stderr logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}
	logger.InitWithWriter(os.Stderr, level)
	return cfg, logger.Default(), nil
}

// backends holds the connections needed by commands that do not run jobs.
type backends struct {
	pool  *pgxpool.Pool
	store *storage.MinIOStorage
	jobs  *jobs.PostgresStore
}

func connect(ctx context.Context, cfg *config.Config) (*backends, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := storage.NewMinIOStorage(&storage.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
		Region:    cfg.MinIORegion,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	return &backends{
		pool:  pool,
		store: store,
		jobs:  jobs.NewPostgresStore(db.New(pool, cfg.JobsTable)),
	}, nil
}

func (b *backends) Close() {
	b.pool.Close()
}
