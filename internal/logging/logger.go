// Package logging builds the slog loggers used by go-cstest.
//
// Diagnostics go to stderr. Test script output is not logged here; it goes to
// the output sink. OutputLogger mirrors it into the log at debug level so a
// JSON log captures a complete run.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures a logger.
type Options struct {
	Format  string    // json, text (default json)
	Level   string    // debug, info, warn, error (default info)
	Verbose bool      // forces debug level with source locations
	Writer  io.Writer // nil = stderr
}

// New creates a logger from opts.
func New(opts Options) *slog.Logger {
	level := parseLevel(opts.Level)
	if opts.Verbose {
		level = slog.LevelDebug
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		handler = slog.NewTextHandler(w, hopts)
	default:
		handler = slog.NewJSONHandler(w, hopts)
	}
	return slog.New(handler)
}

// NewLogger creates a stderr logger with the specified format and level.
func NewLogger(format, level string, verbose bool) *slog.Logger {
	return New(Options{Format: format, Level: level, Verbose: verbose})
}

// NewLoggerWithWriter creates a logger that writes to a custom writer.
// Useful for testing.
func NewLoggerWithWriter(w io.Writer, format, level string) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return New(Options{Format: format, Level: level, Writer: w})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
