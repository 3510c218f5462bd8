package api

import (
	"context"
	"net/http"

	"github.com/abdul-hamid-achik/mediaswap/internal/health"
	"github.com/abdul-hamid-achik/mediaswap/internal/pipeline"
)

// Runner executes one job to completion.
type Runner interface {
	Run(ctx context.Context, jobID string) (*pipeline.Outcome, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type Config struct {
	Runner         Runner
	EndpointSecret string
	// Limiter is optional; nil disables rate limiting of the job endpoint.
	Limiter Limiter
	Health  *health.Checker
}

func NewRouter(cfg *Config) http.Handler {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("GET /health", health.HealthHandler(cfg.Health))
		mux.HandleFunc("GET /health/ready", health.ReadinessHandler(cfg.Health))
	}
	mux.HandleFunc("GET /health/live", health.LivenessHandler())

	var swap http.Handler = swapHandler(cfg)
	if cfg.Limiter != nil {
		swap = RateLimit(cfg.Limiter)(swap)
	}
	mux.Handle("POST /v1/swap-faces", swap)

	return mux
}
