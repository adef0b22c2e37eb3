package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. JSON on stdout so log shippers can
// parse it without extra configuration.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
