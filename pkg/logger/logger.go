// Package logger provides centralized slog.Logger construction with
// configurable level, output format, and optional rotating file output.
package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level  string // "debug", "info", "warn", "error" (default: "info")
	Format string // "json" or "text" (default: "text")

	// File, when set, mirrors log output to a size-rotated file in
	// addition to stderr. Useful when the scheduler discards stdout.
	File       string
	MaxSizeMB  int // default 10
	MaxBackups int // default 3
}

// New creates a *slog.Logger configured from opts. Output goes to
// stderr, plus the rotating file when opts.File is set.
func New(opts Options) *slog.Logger {
	w := io.Writer(os.Stderr)
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize == 0 {
			maxSize = 10
		}
		maxBackups := opts.MaxBackups
		if maxBackups == 0 {
			maxBackups = 3
		}
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		})
	}
	return NewWithWriter(w, opts.Level, opts.Format)
}

// NewWithWriter creates a *slog.Logger writing to w.
// Useful for testing or redirecting output.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level string to slog.Level.
// Recognized values: "debug", "warn", "error". Everything else returns LevelInfo.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
