package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Redis    RedisConfig    `yaml:"redis"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Prequal  PrequalConfig  `yaml:"prequal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int    `yaml:"port"`
	MetricsPort  int    `yaml:"metrics_port"`
	AdminToken   string `yaml:"admin_token"`
	RateLimitRPM int    `yaml:"rate_limit_rpm"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig configures the submission score memo. An empty Addr disables it.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type ScoringConfig struct {
	TargetWeightTotal float64 `yaml:"target_weight_total"`
	WeightTolerance   float64 `yaml:"weight_tolerance"`
	RescoreEnabled    bool    `yaml:"rescore_enabled"`
	RescoreIntervalMs int     `yaml:"rescore_interval_ms"`
	RescoreBatchSize  int     `yaml:"rescore_batch_size"`
}

type PrequalConfig struct {
	// QuestionnairePath points to a YAML list of questions. Empty uses the
	// built-in vendor questionnaire.
	QuestionnairePath string     `yaml:"questionnaire_path"`
	Tiers             TierConfig `yaml:"tiers"`
}

type TierConfig struct {
	Excellent float64 `yaml:"excellent"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) RescoreInterval() time.Duration {
	return time.Duration(c.Scoring.RescoreIntervalMs) * time.Millisecond
}

// SlogLevel maps logging.level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8700,
			MetricsPort:  8701,
			RateLimitRPM: 300,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Redis: RedisConfig{
			CacheTTLSeconds: 600,
		},
		Scoring: ScoringConfig{
			TargetWeightTotal: 100,
			WeightTolerance:   0.05,
			RescoreEnabled:    true,
			RescoreIntervalMs: 30000,
			RescoreBatchSize:  50,
		},
		Prequal: PrequalConfig{
			Tiers: TierConfig{
				Excellent: 80,
				Good:      60,
				Fair:      40,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Scoring.WeightTolerance < 0 {
		return fmt.Errorf("scoring.weight_tolerance must not be negative, got %g", c.Scoring.WeightTolerance)
	}
	if c.Scoring.RescoreEnabled {
		if c.Scoring.RescoreIntervalMs <= 0 {
			return fmt.Errorf("scoring.rescore_interval_ms must be positive, got %d", c.Scoring.RescoreIntervalMs)
		}
		if c.Scoring.RescoreBatchSize <= 0 {
			return fmt.Errorf("scoring.rescore_batch_size must be positive, got %d", c.Scoring.RescoreBatchSize)
		}
	}
	t := c.Prequal.Tiers
	if !(t.Excellent >= t.Good && t.Good >= t.Fair) {
		return fmt.Errorf("prequal.tiers must be descending, got excellent=%g good=%g fair=%g", t.Excellent, t.Good, t.Fair)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TALLY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TALLY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TALLY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TALLY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TALLY_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("TALLY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TALLY_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TALLY_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.CacheTTLSeconds = n
		}
	}
	if v := os.Getenv("TALLY_WEIGHT_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.WeightTolerance = f
		}
	}
	if v := os.Getenv("TALLY_RESCORE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.RescoreEnabled = b
		}
	}
	if v := os.Getenv("TALLY_RESCORE_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scoring.RescoreIntervalMs = n
		}
	}
	if v := os.Getenv("TALLY_QUESTIONNAIRE_PATH"); v != "" {
		cfg.Prequal.QuestionnairePath = v
	}
	if v := os.Getenv("TALLY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TALLY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
