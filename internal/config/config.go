// Package config loads tagstore settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/tagstore/internal/store"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds environment-provided settings. Command-line flags override
// them.
type Config struct {
	DBPath   string `env:"TAGSTORE_DB" envDefault:"tagstore.db"`
	Driver   string `env:"TAGSTORE_DRIVER" envDefault:"sqlite3"`
	LogLevel string `env:"TAGSTORE_LOG_LEVEL" envDefault:"info"`
	Format   string `env:"TAGSTORE_FORMAT" envDefault:"text"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every field holds a supported value.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.Driver {
	case store.DriverMattn, store.DriverModernc:
	default:
		return fmt.Errorf("unsupported driver %q (use %q or %q)", c.Driver, store.DriverMattn, store.DriverModernc)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q (use %q or %q)", c.Format, FormatText, FormatJSON)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
