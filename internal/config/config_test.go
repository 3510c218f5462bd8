package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENDPOINT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/mediaswap")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 49200 {
		t.Errorf("Port = %d, want 49200", cfg.Port)
	}
	if cfg.JobsTable != "jobs" {
		t.Errorf("JobsTable = %q, want %q", cfg.JobsTable, "jobs")
	}
	if cfg.SourceBucket != "source" || cfg.TargetBucket != "target" || cfg.ResultBucket != "result" {
		t.Errorf("buckets = %q/%q/%q", cfg.SourceBucket, cfg.TargetBucket, cfg.ResultBucket)
	}
	if cfg.Engine != "command" {
		t.Errorf("Engine = %q, want %q", cfg.Engine, "command")
	}
	if cfg.EngineTimeout != 0 {
		t.Errorf("EngineTimeout = %s, want 0", cfg.EngineTimeout)
	}
	if !cfg.PreviewEnabled {
		t.Error("PreviewEnabled should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ENGINE", "compositor")
	t.Setenv("ENGINE_TIMEOUT", "90s")
	t.Setenv("PREVIEW_ENABLED", "false")
	t.Setenv("RESULT_BUCKET", "swaps")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8081 {
		t.Errorf("Port = %d, want 8081", cfg.Port)
	}
	if cfg.Engine != "compositor" {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.EngineTimeout != 90*time.Second {
		t.Errorf("EngineTimeout = %s, want 90s", cfg.EngineTimeout)
	}
	if cfg.PreviewEnabled {
		t.Error("PreviewEnabled = true, want false")
	}
	if cfg.ResultBucket != "swaps" {
		t.Errorf("ResultBucket = %q", cfg.ResultBucket)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"secret", "ENDPOINT_SECRET"},
		{"database", "DATABASE_URL"},
		{"minio endpoint", "MINIO_ENDPOINT"},
		{"minio access key", "MINIO_ACCESS_KEY"},
		{"minio secret key", "MINIO_SECRET_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.unset) {
				t.Errorf("error %q does not name %s", err, tt.unset)
			}
		})
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("ENGINE_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:            49200,
			MetricsPort:     9090,
			SourceBucket:    "source",
			TargetBucket:    "target",
			ResultBucket:    "result",
			Engine:          "command",
			TraceSampleRate: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"bad metrics port", func(c *Config) { c.MetricsPort = 70000 }, true},
		{"missing bucket", func(c *Config) { c.ResultBucket = "" }, true},
		{"unknown engine", func(c *Config) { c.Engine = "gpu" }, true},
		{"negative timeout", func(c *Config) { c.EngineTimeout = -time.Second }, true},
		{"bad sample rate", func(c *Config) { c.TraceSampleRate = 2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
