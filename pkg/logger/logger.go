// Package logger builds the process slog.Logger from the logging and debug
// configuration.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Options selects the handler and level.
type Options struct {
	Level   string // debug, info, warn, error; anything else is info
	Format  string // json or text
	Verbose bool   // forces debug regardless of Level
	Service string // added as a "service" attribute when set
}

// NewWithOptions creates a logger writing to w. Both binaries pass stderr
// so stdout stays free for command output.
func NewWithOptions(w io.Writer, o Options) *slog.Logger {
	lvl := ParseLevel(o.Level)
	if o.Verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(o.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	if o.Service != "" {
		l = l.With("service", o.Service)
	}
	return l
}

// Discard returns a logger that drops everything. Handy for CLI commands
// that print their own output.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a level name to slog.Level, ignoring case.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
