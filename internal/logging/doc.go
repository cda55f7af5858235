// Package logging provides structured logging for framebox.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug) for wire-level detail
//   - File or stderr output (the interactive UI owns the terminal, so it logs to a file)
//   - Automatic context field injection (trace_id, request.id, project.id)
//
// # Usage
//
// Create logger from config:
//
//	cfg, err := logging.ParseConfig("debug", "json", "/tmp/framebox.log")
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
// Log with context:
//
//	ctx = logging.WithProjectID(ctx, "V1StGX")
//	logger.Info(ctx, "files uploaded", zap.Int("count", 3))
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
package logging
