// Package logging provides structured logging utilities.
//
// Console logs are bracketed and colored when attached to a terminal:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value
// The "json" format switches to slog's JSON handler for log shippers.
package logging

import (
	"log/slog"
	"os"

	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = NewConsoleHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerWithSystem creates a logger scoped to a subsystem (e.g. "sync",
// "daemon", "api"). The console handler renders the system as a bracket.
func NewLoggerWithSystem(cfg config.LoggingConfig, system string) *slog.Logger {
	return NewLogger(cfg).With("system", system)
}
