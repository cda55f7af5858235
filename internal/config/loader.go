package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment variable framebox reads.
	EnvPrefix = "FRAMEBOX_"
)

// DefaultPath returns ~/.config/framebox/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "framebox", "config.yaml"), nil
}

// LoadWithFile loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FRAMEBOX_SERVER_URL, FRAMEBOX_LOGGING_LEVEL, etc.)
//  2. YAML config file (~/.config/framebox/config.yaml)
//  3. Hardcoded defaults
//
// A missing file is not an error. An explicitly named file that is not a
// regular file, or is larger than 1MB, is rejected.
//
// # Environment Variable Mapping
//
// The FRAMEBOX_ prefix is stripped and the rest is split on the first
// underscore into section and field:
//
//	FRAMEBOX_SERVER_URL            -> server.url
//	FRAMEBOX_UI_TOAST_DURATION     -> ui.toast_duration
//	FRAMEBOX_TELEMETRY_SAMPLING_RATE -> telemetry.sampling_rate
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg, k.Exists)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps FRAMEBOX_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// readConfigFile opens the file once and validates it through the open
// descriptor before reading.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// applyDefaults sets default values for missing configuration fields.
// isSet reports whether a key was given explicitly, for fields whose zero
// value is meaningful.
func applyDefaults(cfg *Config, isSet func(key string) bool) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")

	if cfg.UI.ToastDuration == 0 {
		cfg.UI.ToastDuration = Duration(DefaultToastDuration)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
	if cfg.Telemetry.SamplingRate == 0 && !isSet("telemetry.sampling_rate") {
		cfg.Telemetry.SamplingRate = 1.0
	}

	if cfg.Sync.QuietPeriod == 0 {
		cfg.Sync.QuietPeriod = Duration(DefaultQuietPeriod)
	}
}
