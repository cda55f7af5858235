// Package telemetry provides OpenTelemetry instrumentation for framebox.
package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/framebox/internal/config"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	Endpoint       string
	Protocol       string // "grpc" (default) or "http/protobuf"
	ServiceName    string
	ServiceVersion string
	Insecure       bool // Use insecure connection (no TLS)
	TLSSkipVerify  bool // Skip certificate verification (internal CAs)
	SamplingRate   float64
	Metrics        MetricsConfig
	Shutdown       ShutdownConfig
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Enabled        bool
	ExportInterval config.Duration
}

// ShutdownConfig controls graceful shutdown behavior.
type ShutdownConfig struct {
	Timeout config.Duration
}

// NewDefaultConfig returns telemetry defaults. Telemetry is disabled by
// default since most users run without a collector.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		Protocol:       "grpc",
		ServiceName:    "framebox",
		ServiceVersion: "dev",
		Insecure:       true,
		SamplingRate:   1.0,
		Metrics: MetricsConfig{
			Enabled:        true,
			ExportInterval: config.Duration(15 * time.Second),
		},
		Shutdown: ShutdownConfig{
			Timeout: config.Duration(5 * time.Second),
		},
	}
}

// FromSettings builds a Config from the application config section.
func FromSettings(s config.TelemetryConfig, version string) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = s.Enabled
	if s.Endpoint != "" {
		cfg.Endpoint = s.Endpoint
	}
	if s.Protocol != "" {
		cfg.Protocol = s.Protocol
	}
	if s.ServiceName != "" {
		cfg.ServiceName = s.ServiceName
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	cfg.Insecure = s.Insecure
	cfg.TLSSkipVerify = s.TLSSkipVerify
	cfg.SamplingRate = s.SamplingRate
	return cfg
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}

	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}

	if c.Protocol != "grpc" && c.Protocol != "http/protobuf" {
		return fmt.Errorf("protocol must be 'grpc' or 'http/protobuf', got %q", c.Protocol)
	}

	if c.Insecure && !c.isLocalEndpoint() {
		return fmt.Errorf("insecure connections to remote endpoints are not allowed; set insecure=false for TLS or use a local endpoint (localhost/127.0.0.1)")
	}

	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling rate must be between 0 and 1, got %f", c.SamplingRate)
	}

	if c.Metrics.Enabled && c.Metrics.ExportInterval.Duration() <= 0 {
		return fmt.Errorf("metrics export interval must be positive when metrics enabled")
	}

	if c.Shutdown.Timeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	return nil
}

// isLocalEndpoint checks if the endpoint is a local address.
func (c *Config) isLocalEndpoint() bool {
	host := stripScheme(c.Endpoint)

	if strings.HasPrefix(host, "[") {
		if idx := strings.Index(host, "]"); idx != -1 {
			host = host[1:idx]
		}
	} else if strings.Count(host, ":") == 1 {
		host = host[:strings.LastIndex(host, ":")]
	}

	return host == "localhost" ||
		host == "::1" ||
		strings.HasPrefix(host, "127.")
}
