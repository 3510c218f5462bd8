package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	MetricsPort int
	Environment string
	LogLevel    string

	EndpointSecret     string
	RateLimitPerMinute int

	DatabaseURL string
	JobsTable   string
	RedisURL    string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIORegion    string

	SourceBucket string
	TargetBucket string
	ResultBucket string

	StagingDir string

	Engine           string
	EngineCommand    string
	EngineScript     string
	EngineConfigFile string
	EngineTimeout    time.Duration

	PreviewEnabled bool
	FFmpegPath     string

	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	var err error

	cfg.Port = getEnvInt("PORT", 49200)
	cfg.MetricsPort = getEnvInt("METRICS_PORT", 9090)

	cfg.EndpointSecret = os.Getenv("ENDPOINT_SECRET")
	if cfg.EndpointSecret == "" {
		return nil, fmt.Errorf("ENDPOINT_SECRET is required")
	}
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", 60)

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	cfg.JobsTable = getEnvString("JOBS_TABLE", "jobs")

	// Redis is optional; without it the endpoint is not rate limited.
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}

	cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	if cfg.MinIOAccessKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY is required")
	}

	cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	if cfg.MinIOSecretKey == "" {
		return nil, fmt.Errorf("MINIO_SECRET_KEY is required")
	}

	cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinIORegion = getEnvString("MINIO_REGION", "us-east-1")

	cfg.SourceBucket = getEnvString("SOURCE_BUCKET", "source")
	cfg.TargetBucket = getEnvString("TARGET_BUCKET", "target")
	cfg.ResultBucket = getEnvString("RESULT_BUCKET", "result")

	cfg.StagingDir = getEnvString("STAGING_DIR", "uploads")

	cfg.Engine = getEnvString("ENGINE", "command")
	cfg.EngineCommand = getEnvString("ENGINE_COMMAND", "python3")
	cfg.EngineScript = getEnvString("ENGINE_SCRIPT", "facefusion.py")
	cfg.EngineConfigFile = os.Getenv("ENGINE_CONFIG_FILE")
	cfg.EngineTimeout, err = getEnvDuration("ENGINE_TIMEOUT", "0s")
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_TIMEOUT: %w", err)
	}

	cfg.PreviewEnabled = getEnvBool("PREVIEW_ENABLED", true)
	cfg.FFmpegPath = getEnvString("FFMPEG_PATH", "ffmpeg")

	cfg.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.OTLPEndpoint = getEnvString("OTLP_ENDPOINT", "localhost:4317")
	cfg.TraceSampleRate = getEnvFloat("TRACE_SAMPLE_RATE", 1.0)

	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return time.ParseDuration(value)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}

	if c.SourceBucket == "" || c.TargetBucket == "" || c.ResultBucket == "" {
		return fmt.Errorf("source, target and result buckets are required")
	}

	switch c.Engine {
	case "command", "compositor":
	default:
		return fmt.Errorf("invalid engine: %q", c.Engine)
	}

	if c.EngineTimeout < 0 {
		return fmt.Errorf("invalid engine timeout: %s", c.EngineTimeout)
	}

	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("invalid trace sample rate: %v", c.TraceSampleRate)
	}

	return nil
}
