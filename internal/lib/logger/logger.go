package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the process logger. For non-local environments the log is
// JSON; when logPath is set, output is duplicated into logPath/tripbot.log.
func SetupLogger(env, logPath string) *slog.Logger {
	var out io.Writer = os.Stdout
	if logPath != "" {
		if err := os.MkdirAll(logPath, 0o755); err == nil {
			f, err := os.OpenFile(filepath.Join(logPath, "tripbot.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				out = io.MultiWriter(os.Stdout, f)
			}
		}
	}

	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return log
}
