package config

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	KnowledgeBasePath string `mapstructure:"KNOWLEDGE_BASE_PATH"`
	NormalizeSymptoms bool   `mapstructure:"NORMALIZE_SYMPTOMS"`
	StatsTopN         int    `mapstructure:"STATS_TOP_N"`
}

// Per-environment log levels when LOG_LEVEL is unset.
var defaultLogLevels = map[string]string{
	"development": "debug",
	"testing":     "debug",
	"production":  "error",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "") // "" -> inferred from ENV
	v.SetDefault("KNOWLEDGE_BASE_PATH", "knowledge_base.json")
	v.SetDefault("NORMALIZE_SYMPTOMS", false)
	v.SetDefault("STATS_TOP_N", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("KNOWLEDGE_BASE_PATH")
	v.BindEnv("NORMALIZE_SYMPTOMS")
	v.BindEnv("STATS_TOP_N")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when running with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedLogLevel returns LOG_LEVEL if set, otherwise the default for ENV:
//   - development, testing → debug
//   - production           → error
//   - anything else        → info
func (c *Config) ResolvedLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	if lvl, ok := defaultLogLevels[c.Env]; ok {
		return lvl
	}
	return "info"
}

// Validate checks that ENV is a known environment, that the log level
// parses and that a knowledge base path is configured.
func (c *Config) Validate() error {
	if _, ok := defaultLogLevels[c.Env]; !ok {
		return fmt.Errorf("ENV must be \"development\", \"testing\", or \"production\", got %q", c.Env)
	}
	if _, err := zerolog.ParseLevel(c.ResolvedLogLevel()); err != nil {
		return fmt.Errorf("LOG_LEVEL is not a valid level: %w", err)
	}
	if c.KnowledgeBasePath == "" {
		return fmt.Errorf("KNOWLEDGE_BASE_PATH must not be empty")
	}
	if c.StatsTopN < 0 {
		return fmt.Errorf("STATS_TOP_N must not be negative, got %d", c.StatsTopN)
	}
	return nil
}
