package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"moodlog/internal/config"
)

// InitLogger installs a tint handler as the default slog logger.
func InitLogger(cfg config.LoggingConfig) {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      ParseLevel(cfg.Level),
		TimeFormat: time.Kitchen,
		AddSource:  cfg.AddSource,
	})

	slog.SetDefault(slog.New(handler))
}

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
