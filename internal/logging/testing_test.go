package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger_Assertions(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Info(ctx, "project created", zap.String("name", "demo"), zap.Int("files", 3))

	tl.AssertLogged(t, zapcore.InfoLevel, "project created")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "project created")
	tl.AssertField(t, "created", "name", "demo")
	tl.AssertField(t, "created", "files", int64(3))
	assert.Equal(t, 1, tl.FilterMessage("project").Len())

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestTestLogger_AssertTraceCorrelation(t *testing.T) {
	tl := NewTestLogger()
	tracer := trace.NewTracerProvider().Tracer("test")

	ctx, span := tracer.Start(context.Background(), "op")
	defer span.End()

	tl.Debug(ctx, "inside span")
	tl.AssertTraceCorrelation(t, "inside span")
}
