// internal/logging/levels.go
package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel is a custom level below Debug used for wire-level detail such
// as request and response headers. Value: -2 (Debug is -1, Info is 0).
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name case-insensitively, supporting "trace".
// Unknown names return InfoLevel and an error.
func LevelFromString(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}
