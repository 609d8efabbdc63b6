package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/oatrack/oadb/pkg/config"
)

// New creates a new slog.Logger based on the provided configuration.
// It respects the logging level, format and destination from the config.
// Invalid values default to Info level, text format and stderr.
func New(cfg *config.LogConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var out io.Writer
	switch strings.ToLower(cfg.Destination) {
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
// Valid levels: "debug", "info", "warn", "error" (case-insensitive).
// Invalid levels default to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
