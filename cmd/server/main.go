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
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/api"
	"github.com/abdul-hamid-achik/mediaswap/internal/app"
	"github.com/abdul-hamid-achik/mediaswap/internal/config"
	"github.com/abdul-hamid-achik/mediaswap/internal/health"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/metrics"
	"github.com/abdul-hamid-achik/mediaswap/internal/tracing"
	"github.com/abdul-hamid-achik/mediaswap/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()
	log.Info("configuration loaded", "environment", cfg.Environment, "engine", cfg.Engine, "version", version.Short())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, &tracing.Config{
		ServiceName:    "mediaswap",
		ServiceVersion: version.Short(),
		Environment:    cfg.Environment,
		Engine:         cfg.Engine,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	metrics.SetAppInfo(version.Short(), cfg.Environment, "server")

	router := api.NewRouter(&api.Config{
		Runner:         a.Pipeline,
		EndpointSecret: cfg.EndpointSecret,
		Limiter:        a.Limiter,
		Health:         a.Health,
	})
	handler := api.Chain(router,
		metrics.HTTPMetricsMiddleware,
		api.RequestID,
		api.RequestLogger,
		api.Recovery,
	)
	if cfg.TracingEnabled {
		handler = tracing.HTTPMiddleware("mediaswap")(handler)
	}

	// Transformations can take minutes, so there is no write timeout.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/health", health.LivenessHandler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("metrics server starting", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)

		// In-flight jobs are allowed to finish.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("error stopping server", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("error stopping metrics server", "error", err)
		}
		cancel()
	}

	log.Info("server stopped gracefully")
	return nil
}
