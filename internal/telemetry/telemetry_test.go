package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/framebox/internal/config"
)

func TestNew_DisabledTelemetry(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.False(t, tel.IsEnabled())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := &Config{Enabled: true}

	tel, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_EnabledDoesNotDialEagerly(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = "localhost:1"
	cfg.Shutdown.Timeout = config.Duration(100 * time.Millisecond)

	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, tel.IsEnabled())
	assert.False(t, tel.Health().Degraded)

	_ = tel.Shutdown(context.Background())
}

func TestTelemetry_Health(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	health := tel.Health()
	assert.True(t, health.Healthy)
	assert.False(t, health.Degraded)
	assert.Empty(t, health.Reason)

	tel.setDegraded("exporter failed: %s", "boom")
	health = tel.Health()
	assert.True(t, health.Degraded)
	assert.Equal(t, "exporter failed: boom", health.Reason)
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotPanics(t, func() {
		_ = tel.Tracer("test")
		_ = tel.Meter("test")
		_ = tel.Health()
		_ = tel.IsEnabled()
		_ = tel.Shutdown(context.Background())
	})

	health := tel.Health()
	assert.False(t, health.Healthy)
	assert.True(t, health.Degraded)
}

func TestTelemetry_Shutdown(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestTestTelemetry_SpanRecording(t *testing.T) {
	tt := NewTestTelemetry()

	_, span := tt.Tracer("test").Start(context.Background(), "upload")
	span.SetAttributes(
		attribute.String("project.id", "abc123"),
		attribute.Int64("files", 2),
		attribute.Bool("ok", true),
	)
	span.End()

	tt.AssertSpanExists(t, "upload")
	tt.AssertSpanAttribute(t, "upload", "project.id", "abc123")
	tt.AssertSpanAttribute(t, "upload", "files", int64(2))
	tt.AssertSpanAttribute(t, "upload", "ok", true)
	assert.Nil(t, tt.SpanByName("missing"))
}

func TestTestTelemetry_CounterValue(t *testing.T) {
	tt := NewTestTelemetry()

	counter, err := tt.Meter("test").Int64Counter("framebox.test.count")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 1, metricAttr("a"))
	counter.Add(ctx, 2, metricAttr("b"))

	assert.Equal(t, int64(3), tt.CounterValue(t, "framebox.test.count"))
	assert.Zero(t, tt.CounterValue(t, "framebox.absent"))
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "otel.example:4318", stripScheme("https://otel.example:4318"))
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func metricAttr(v string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", v))
}

func TestExporters_TLSSkipVerify(t *testing.T) {
	for _, protocol := range []string{"grpc", "http/protobuf"} {
		t.Run(protocol, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
			cfg.Endpoint = "otel.internal:4317"
			cfg.Protocol = protocol
			cfg.Insecure = false
			cfg.TLSSkipVerify = true
			require.NoError(t, cfg.Validate())

			ctx := context.Background()
			spans, err := newSpanExporter(ctx, cfg)
			require.NoError(t, err)
			metrics, err := newMetricExporter(ctx, cfg)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()
			_ = spans.Shutdown(ctx)
			_ = metrics.Shutdown(ctx)
		})
	}
}
