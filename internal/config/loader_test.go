package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temporary directory for the test.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	setupTestHome(t)

	path := writeConfig(t, t.TempDir(), `server:
  url: https://frames.example/
  timeout: 30s
ui:
  toast_duration: 5s
logging:
  level: debug
  format: console
  file: /tmp/framebox.log
telemetry:
  enabled: true
  endpoint: localhost:4318
  protocol: http/protobuf
  insecure: true
  tls_skip_verify: true
  sampling_rate: 0.5
sync:
  quiet_period: 2s
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://frames.example", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout.Duration())
	assert.Equal(t, 5*time.Second, cfg.UI.ToastDuration.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "/tmp/framebox.log", cfg.Logging.File)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, "http/protobuf", cfg.Telemetry.Protocol)
	assert.True(t, cfg.Telemetry.Insecure)
	assert.True(t, cfg.Telemetry.TLSSkipVerify)
	assert.Equal(t, 0.5, cfg.Telemetry.SamplingRate)
	assert.Equal(t, 2*time.Second, cfg.Sync.QuietPeriod.Duration())
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	setupTestHome(t)

	path := writeConfig(t, t.TempDir(), `server:
  url: http://yaml.example:8001
logging:
  level: warn
`)

	t.Setenv("FRAMEBOX_SERVER_URL", "http://env.example:9000")
	t.Setenv("FRAMEBOX_LOGGING_LEVEL", "debug")
	t.Setenv("FRAMEBOX_UI_TOAST_DURATION", "1s")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env.example:9000", cfg.Server.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Second, cfg.UI.ToastDuration.Duration())
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Zero(t, cfg.Server.Timeout)
	assert.Equal(t, DefaultToastDuration, cfg.UI.ToastDuration.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, DefaultServiceName, cfg.Telemetry.ServiceName)
	assert.Equal(t, DefaultQuietPeriod, cfg.Sync.QuietPeriod.Duration())
}

func TestLoadWithFile_ZeroSamplingRate(t *testing.T) {
	setupTestHome(t)

	path := writeConfig(t, t.TempDir(), `telemetry:
  enabled: true
  endpoint: localhost:4317
  sampling_rate: 0
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Telemetry.SamplingRate)

	t.Setenv("FRAMEBOX_TELEMETRY_SAMPLING_RATE", "0")
	cfg, err = LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Telemetry.SamplingRate)
}

func TestLoadWithFile_DefaultPath(t *testing.T) {
	home := setupTestHome(t)

	dir := filepath.Join(home, ".config", "framebox")
	require.NoError(t, os.MkdirAll(dir, 0700))
	writeConfig(t, dir, "server:\n  url: http://from-home.example\n")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-home.example", cfg.Server.URL)
}

func TestLoadWithFile_InvalidYAML(t *testing.T) {
	setupTestHome(t)

	path := writeConfig(t, t.TempDir(), "server: [unterminated\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadWithFile_Validation(t *testing.T) {
	setupTestHome(t)

	path := writeConfig(t, t.TempDir(), "server:\n  url: ftp://frames.example\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadWithFile_FileTooLarge(t *testing.T) {
	setupTestHome(t)

	path := writeConfig(t, t.TempDir(), "# "+strings.Repeat("x", maxConfigFileSize)+"\n")

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestLoadWithFile_Directory(t *testing.T) {
	setupTestHome(t)

	_, err := LoadWithFile(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"FRAMEBOX_SERVER_URL":              "server.url",
		"FRAMEBOX_UI_TOAST_DURATION":       "ui.toast_duration",
		"FRAMEBOX_TELEMETRY_SAMPLING_RATE": "telemetry.sampling_rate",
		"FRAMEBOX_DEBUG":                   "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
