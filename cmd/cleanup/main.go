package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/config"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/staging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cleanup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	maxAge := flag.Duration("max-age", 6*time.Hour, "remove staged files older than this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	log.Info("starting staging sweep", "root", cfg.StagingDir, "max_age", maxAge.String())
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	area, err := staging.NewArea(cfg.StagingDir)
	if err != nil {
		return fmt.Errorf("failed to open staging area: %w", err)
	}

	stats, err := area.Sweep(logger.WithLogger(ctx, log), *maxAge)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	log.Info("staging sweep completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"scanned", stats.Scanned,
		"removed", stats.Removed,
		"failed", stats.Failed,
	)

	return nil
}
