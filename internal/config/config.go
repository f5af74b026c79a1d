// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/cwbudde/algo-restore/internal/storage"
)

// Config holds the settings shared by every restore command.
type Config struct {
	// Processing settings
	Workers int    `env:"RESTORE_WORKERS, default=4" json:"workers" validate:"min=1,max=64"`
	TempDir string `env:"RESTORE_TEMP_DIR" json:"temp_dir"`

	// Optional S3 settings
	S3Region           string `env:"RESTORE_S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"RESTORE_S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"RESTORE_LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json"`
	LogLevel  string `env:"RESTORE_LOG_LEVEL, default=info" json:"log_level" validate:"oneof=debug info warn warning error"`
}

// Load reads configuration from the environment and validates it.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l, which tests use to supply a map.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// S3Enabled returns true if a region is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Region != ""
}

// S3Config returns the storage settings, or nil when S3 is not enabled.
func (c *Config) S3Config() *storage.S3Config {
	if !c.S3Enabled() {
		return nil
	}

	return &storage.S3Config{
		Region:          c.S3Region,
		Endpoint:        c.S3Endpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
}

// NewLogger creates a structured logger writing to w. When LogFormat is
// "json" it emits JSON records, otherwise human-readable text.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Workers: %d, TempDir: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.Workers,
		c.TempDir,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
