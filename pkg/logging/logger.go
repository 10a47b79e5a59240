package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so call sites stay decoupled from handler setup.
type Logger struct {
	*slog.Logger
}

// New creates a logger with the given level. Format is "json" or "text";
// anything else falls back to json, which is what log shipping expects.
func New(level, format string) *Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Default returns a json logger at info level.
func Default() *Logger {
	return New("info", "json")
}

// With returns a logger carrying the given attributes, preserving the
// wrapper type so callers can keep passing *Logger around.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return Default()
	}
	return &Logger{Logger: l.Logger.With(args...)}
}
