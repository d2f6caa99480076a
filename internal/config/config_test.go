package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"TALLY_PORT", "TALLY_METRICS_PORT", "TALLY_ADMIN_TOKEN",
	"TALLY_DATABASE_URL", "TALLY_HERMES_URL", "TALLY_REDIS_ADDR",
	"TALLY_REDIS_PASSWORD", "TALLY_CACHE_TTL_SECONDS", "TALLY_WEIGHT_TOLERANCE",
	"TALLY_RESCORE_ENABLED", "TALLY_RESCORE_INTERVAL_MS", "TALLY_QUESTIONNAIRE_PATH",
	"TALLY_LOG_LEVEL", "TALLY_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.RateLimitRPM != 300 {
		t.Errorf("expected rate limit 300, got %d", cfg.Server.RateLimitRPM)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("expected redis disabled by default, got %s", cfg.Redis.Addr)
	}
	if cfg.Scoring.TargetWeightTotal != 100 {
		t.Errorf("expected target weight 100, got %f", cfg.Scoring.TargetWeightTotal)
	}
	if cfg.Scoring.WeightTolerance != 0.05 {
		t.Errorf("expected tolerance 0.05, got %f", cfg.Scoring.WeightTolerance)
	}
	if !cfg.Scoring.RescoreEnabled {
		t.Error("expected rescore enabled by default")
	}
	if cfg.Prequal.Tiers.Excellent != 80 || cfg.Prequal.Tiers.Good != 60 || cfg.Prequal.Tiers.Fair != 40 {
		t.Errorf("unexpected tier defaults: %+v", cfg.Prequal.Tiers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	if cfg.CacheTTL() != 10*time.Minute {
		t.Errorf("expected CacheTTL 10m, got %v", cfg.CacheTTL())
	}
	if cfg.RescoreInterval() != 30*time.Second {
		t.Errorf("expected RescoreInterval 30s, got %v", cfg.RescoreInterval())
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLY_PORT", "9000")
	t.Setenv("TALLY_METRICS_PORT", "9001")
	t.Setenv("TALLY_ADMIN_TOKEN", "secret-token")
	t.Setenv("TALLY_DATABASE_URL", "postgres://localhost/tally_test")
	t.Setenv("TALLY_HERMES_URL", "nats://nats:4222")
	t.Setenv("TALLY_REDIS_ADDR", "redis:6379")
	t.Setenv("TALLY_CACHE_TTL_SECONDS", "60")
	t.Setenv("TALLY_WEIGHT_TOLERANCE", "0.5")
	t.Setenv("TALLY_RESCORE_ENABLED", "false")
	t.Setenv("TALLY_RESCORE_INTERVAL_MS", "2000")
	t.Setenv("TALLY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/tally_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("expected redis addr, got '%s'", cfg.Redis.Addr)
	}
	if cfg.CacheTTL() != time.Minute {
		t.Errorf("expected CacheTTL 1m, got %v", cfg.CacheTTL())
	}
	if cfg.Scoring.WeightTolerance != 0.5 {
		t.Errorf("expected tolerance 0.5, got %f", cfg.Scoring.WeightTolerance)
	}
	if cfg.Scoring.RescoreEnabled {
		t.Error("expected rescore disabled")
	}
	if cfg.RescoreInterval() != 2*time.Second {
		t.Errorf("expected RescoreInterval 2s, got %v", cfg.RescoreInterval())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tally.yaml")
	data := []byte(`
server:
  port: 7000
scoring:
  target_weight_total: 1
  weight_tolerance: 0.001
prequal:
  tiers:
    excellent: 90
    good: 70
    fair: 50
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Scoring.TargetWeightTotal != 1 || cfg.Scoring.WeightTolerance != 0.001 {
		t.Errorf("unexpected scoring config: %+v", cfg.Scoring)
	}
	if cfg.Prequal.Tiers.Excellent != 90 {
		t.Errorf("expected excellent 90, got %f", cfg.Prequal.Tiers.Excellent)
	}
}

func TestLoadRejectsInvertedTiers(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte("prequal:\n  tiers:\n    excellent: 50\n    good: 60\n    fair: 40\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for inverted tier bands")
	}
}

func TestLoadRejectsNonPositiveRescore(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  string
	}{
		{name: "zero interval", yaml: "scoring:\n  rescore_interval_ms: 0\n"},
		{name: "zero batch", yaml: "scoring:\n  rescore_batch_size: 0\n"},
		{name: "negative interval from env", env: "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(t.TempDir(), "tally.yaml")
				if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if tt.env != "" {
				t.Setenv("TALLY_RESCORE_INTERVAL_MS", tt.env)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error for non-positive rescore setting")
			}
		})
	}
}

func TestLoadAllowsZeroIntervalWhenRescoreDisabled(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte("scoring:\n  rescore_enabled: false\n  rescore_interval_ms: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scoring.RescoreEnabled {
		t.Error("expected rescore disabled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
