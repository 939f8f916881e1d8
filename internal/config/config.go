// Package config reads SIMON_* settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings. Command-line flags take precedence
// when set explicitly.
type Config struct {
	// DB is the SQLite journal path. Empty disables persistence.
	DB string `env:"SIMON_DB"`

	// Board is a CUE board file. Empty selects the default four-colour board.
	Board string `env:"SIMON_BOARD"`

	LogLevel string `env:"SIMON_LOG_LEVEL" envDefault:"info"`

	// Seed makes local play reproducible when set.
	Seed *uint64 `env:"SIMON_SEED"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns a Config populated from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level returns the configured log level. Load has already validated it.
func (c Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps debug, info, warn and error to slog levels.
// The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
