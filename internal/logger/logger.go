// Package logger provides structured logging setup for taskchat.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/taskchat/taskchat/internal/config"
)

// New creates a *slog.Logger from the given Logging config, plus a Closer
// that flushes buffered records on shutdown. Output goes to stdout with a
// "service" attribute on every record; format is "json" (default) or "text".
// When cfg.Async is set, records pass through a bounded buffer so request
// paths never block on slow log sinks.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, cfg.AsyncBuffer, cfg.AsyncWorkers)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
