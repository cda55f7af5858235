// internal/logging/config.go
package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level
	Format string
	Output OutputConfig
	Caller CallerConfig
	Fields map[string]string
}

// OutputConfig controls where logs are written.
type OutputConfig struct {
	// File receives log entries. Empty writes to stderr.
	File string
}

// CallerConfig controls caller information in logs.
type CallerConfig struct {
	Enabled bool
	Skip    int
}

// NewDefaultConfig returns config with defaults suited to a CLI.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Caller: CallerConfig{
			Enabled: true,
			Skip:    1,
		},
		Fields: map[string]string{
			"service": "framebox",
		},
	}
}

// ParseConfig builds a Config from the plain settings found in the
// application config file.
func ParseConfig(level, format, file string) (*Config, error) {
	cfg := NewDefaultConfig()
	if level != "" {
		l, err := LevelFromString(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = l
	}
	if format != "" {
		cfg.Format = format
	}
	cfg.Output.File = file
	return cfg, cfg.Validate()
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}

	if c.Caller.Enabled && c.Caller.Skip < 0 {
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}

	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}

	return nil
}
