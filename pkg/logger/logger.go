package logger

import (
	"io"
	"log/slog"
	"os"
)

// SetupPrettySlog is the local development logger: human-readable text at debug level.
func SetupPrettySlog() *slog.Logger {
	return NewText(os.Stdout, slog.LevelDebug)
}

func NewText(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}))
}

func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard is used by tests that only care about behaviour.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
