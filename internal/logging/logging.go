// Package logging sets up the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"rivachat/config"
)

// Setup builds a slog.Logger from configuration and installs it as the
// default. Format "auto" picks the tint handler when stdout is a
// terminal and JSON otherwise; "text" and "json" force a handler.
func Setup(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "text":
		handler = tintHandler(level)
	default: // auto
		if term.IsTerminal(int(os.Stdout.Fd())) {
			handler = tintHandler(level)
		} else {
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func tintHandler(level slog.Level) slog.Handler {
	return tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})
}

func parseLevel(s string) slog.Level {
	switch s {
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
