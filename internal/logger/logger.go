package logger

import (
	"io"
	"log/slog"
	"os"

	"cems/internal/config"
)

// New builds the process-wide logger: JSON in production, text everywhere
// else. The returned logger is also installed as the slog default.
func New(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Server.Environment == config.EnvironmentProduction {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	logger := slog.New(handler).With(
		"service", cfg.Telemetry.ServiceName,
		"version", cfg.Telemetry.ServiceVersion,
	)
	slog.SetDefault(logger)
	return logger
}

// Silence redirects the default logger to w at error level, useful in tests.
func Silence(w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelError,
	})
	slog.SetDefault(slog.New(handler))
}
