// Package logging configures structured logging with log/slog.
//
// Usage:
//
//	logging.Setup()                                  // from LOG_LEVEL and LOG_FORMAT env
//	logging.SetupWithLevel(slog.LevelDebug, "text")  // explicit override
//
// Environment variables:
//
//	LOG_LEVEL: debug, info, warn, error (default: info)
//	LOG_FORMAT: text (colored, via tint) or json (default: text)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures the default logger from LOG_LEVEL and LOG_FORMAT and
// returns it.
func Setup() *slog.Logger {
	return SetupWithLevel(ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"))
}

// SetupWithLevel configures the default logger at the given level and format.
func SetupWithLevel(level slog.Level, format string) *slog.Logger {
	logger := New(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// New returns a logger writing to w. Format "json" selects the JSON
// handler; anything else gets the colored tint handler.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
