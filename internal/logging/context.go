// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	if projectID := ProjectIDFromContext(ctx); projectID != "" {
		fields = append(fields, zap.String("project.id", projectID))
	}

	return fields
}

// Context key types
type requestCtxKey struct{}
type projectCtxKey struct{}

const maxIDLen = 128

// idPattern allows alphanumeric, hyphen, underscore
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateID validates a request or project ID.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds request ID to context.
// Panics if requestID is empty or contains invalid characters.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if err := validateID(requestID, "requestID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// ProjectIDFromContext extracts the project ID from context.
func ProjectIDFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(projectCtxKey{}).(string); ok {
		return p
	}
	return ""
}

// WithProjectID adds the project an operation targets to context.
// Invalid IDs are ignored; project IDs come from user input and must not
// crash the caller.
func WithProjectID(ctx context.Context, projectID string) context.Context {
	if validateID(projectID, "projectID") != nil {
		return ctx
	}
	return context.WithValue(ctx, projectCtxKey{}, projectID)
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a default nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
