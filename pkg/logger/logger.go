// Package logger provides structured logging for instrack.
//
// The same logger serves two very different hosts: the instrack CLI, where
// diagnostics go to stderr, and the interception module loaded into a
// tracked process, where nothing may ever reach the host's stdout or stderr.
// For that reason a log file that cannot be opened degrades to a discarding
// logger instead of falling back to stderr, and a discarding logger drops
// records before any formatting happens.
//
// Example usage:
//
//	log := logger.New(logger.Config{
//	    Level:  "info",
//	    Output: "stderr",
//	    Format: "text",
//	})
//	log.Info("tracking session", "identifier", "vim-install")
//	log.Error("closure extraction failed", "error", err, "command", "cat")
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging with levels and fields.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With returns a new logger with additional context fields.
	With(keysAndValues ...interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error, off).
	Level string

	// Output is the destination (stdout, stderr, or file path).
	Output string

	// Format is the output format (text, json).
	Format string

	// Attrs are key-value pairs attached to every record, such as the pid
	// of a tracked process.
	Attrs []any
}

// logger adapts *slog.Logger to Logger.
type logger struct {
	*slog.Logger
}

// With implements Logger.With.
func (l logger) With(keysAndValues ...interface{}) Logger {
	return logger{l.Logger.With(keysAndValues...)}
}

// New creates a new logger with the given configuration.
//
// Parameters:
//   - cfg: Logger configuration
//
// Returns a configured logger instance.
//
// Level "off" yields a discarding logger. An output file that cannot be
// opened also yields a discarding logger.
func New(cfg Config) Logger {
	// Parse log level
	level, on := levelOf(cfg.Level)
	if !on {
		return Noop()
	}

	// Get output writer
	w, err := openOutput(cfg.Output)
	if err != nil {
		// Never fall back to stderr: it may belong to a tracked process
		return Noop()
	}

	// Create handler based on format
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	// Attach fixed fields
	l := slog.New(h)
	if len(cfg.Attrs) > 0 {
		l = l.With(cfg.Attrs...)
	}
	return logger{l}
}

// levelOf converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error, off.
// The second result is false for "off". Defaults to info for unrecognized
// levels.
func levelOf(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "off":
		return 0, false
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, true
	}
}

// openOutput returns an io.Writer for the given output destination.
//
// Parameters:
//   - output: "stdout", "stderr" (also ""), or a file path
//
// Returns the writer, or an error if the file cannot be opened. Files are
// opened for appending.
func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	}

	// #nosec G304: output path comes from trusted config
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}

// Default returns an info-level text logger on stderr.
func Default() Logger {
	return New(Config{
		Level:  "info",
		Output: "stderr",
		Format: "text",
	})
}

// Noop returns a logger that discards every record without formatting it.
func Noop() Logger {
	return logger{slog.New(slog.DiscardHandler)}
}
