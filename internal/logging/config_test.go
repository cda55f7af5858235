package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Empty(t, cfg.Output.File)
	assert.True(t, cfg.Caller.Enabled)
	assert.Equal(t, "framebox", cfg.Fields["service"])
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"console format", func(c *Config) { c.Format = "console" }, ""},
		{"bad format", func(c *Config) { c.Format = "logfmt" }, "format must be"},
		{"negative caller skip", func(c *Config) { c.Caller.Skip = -1 }, "caller skip"},
		{"empty field key", func(c *Config) { c.Fields[""] = "x" }, "field key cannot be empty"},
		{"empty field value", func(c *Config) { c.Fields["env"] = "" }, "has empty value"},
		{"nil fields", func(c *Config) { c.Fields = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("trace", "console", "/tmp/x.log")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "/tmp/x.log", cfg.Output.File)

	cfg, err = ParseConfig("", "", "")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	_, err = ParseConfig("loud", "json", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	_, err = ParseConfig("info", "yaml", "")
	require.Error(t, err)
}
