package app

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger, honoring LOG_FORMAT and LOG_LEVEL.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: logLevel(cfg)}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func logLevel(cfg *Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(cfg.LogLevel) {
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
