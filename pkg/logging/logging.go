// Package logging configures structured logging with log/slog.
//
// Development gets a colored tint handler; production gets JSON lines so
// log shippers can parse fields without a format guess.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures the default logger. When json is true the output is
// one JSON object per line; otherwise a colored human-readable format.
// The level comes from the LOG_LEVEL env var (default: INFO).
func Setup(json bool) {
	SetupWithLevel(json, levelFromEnv())
}

// SetupWithLevel configures the default logger at an explicit level.
func SetupWithLevel(json bool, level slog.Level) {
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
