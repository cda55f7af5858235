// Package config provides configuration loading for framebox.
//
// Configuration is layered: built-in defaults, an optional YAML file, then
// FRAMEBOX_* environment variables. See LoadWithFile for the precedence rules.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Default values applied when a field is left unset.
const (
	DefaultServerURL     = "http://localhost:8001"
	DefaultToastDuration = 3 * time.Second
	DefaultQuietPeriod   = 500 * time.Millisecond
	DefaultServiceName   = "framebox"
)

// Config holds the complete framebox client configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	UI        UIConfig        `koanf:"ui"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Sync      SyncConfig      `koanf:"sync"`
}

// ServerConfig describes the hosting backend the client talks to.
type ServerConfig struct {
	URL string `koanf:"url"`
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout Duration `koanf:"timeout"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	ToastDuration Duration `koanf:"toast_duration"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File receives log output. Empty means stderr.
	File string `koanf:"file"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled       bool    `koanf:"enabled"`
	Endpoint      string  `koanf:"endpoint"`
	Protocol      string  `koanf:"protocol"` // "grpc" or "http/protobuf"
	Insecure      bool    `koanf:"insecure"`
	// TLSSkipVerify accepts collectors with certificates from internal CAs.
	TLSSkipVerify bool    `koanf:"tls_skip_verify"`
	ServiceName   string  `koanf:"service_name"`
	SamplingRate  float64 `koanf:"sampling_rate"`
}

// SyncConfig holds directory sync settings.
type SyncConfig struct {
	QuietPeriod Duration `koanf:"quiet_period"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, func(string) bool { return false })
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - server.url is not an absolute http(s) URL
//   - a duration is negative or the toast duration is zero
//   - logging.format is neither "json" nor "console"
//   - telemetry is enabled without an endpoint, or the sampling rate is outside [0, 1]
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.Server.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url must use http or https, got %q", c.Server.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url has no host: %q", c.Server.URL)
	}

	if c.Server.Timeout < 0 {
		return errors.New("server timeout cannot be negative")
	}
	if c.UI.ToastDuration <= 0 {
		return errors.New("ui toast duration must be positive")
	}
	if c.Sync.QuietPeriod <= 0 {
		return errors.New("sync quiet period must be positive")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry endpoint required when telemetry is enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("telemetry sampling rate must be between 0 and 1, got %v", c.Telemetry.SamplingRate)
	}

	return nil
}

// DefaultLogFile returns the log file used by the interactive UI when none is
// configured: $XDG_STATE_HOME/framebox/framebox.log, falling back to
// ~/.local/state/framebox/framebox.log.
func DefaultLogFile() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "framebox", "framebox.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "framebox", "framebox.log"), nil
}
