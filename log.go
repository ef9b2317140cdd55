package vkr

import (
	"log/slog"
	"strings"
)

var logger = slog.Default()

// SetLogger replaces the logger used by the package. A nil logger restores
// slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

// ParseLogLevel maps a config level name onto a slog.Level, defaulting to
// info for unknown names.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
