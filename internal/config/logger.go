package config

import (
	"io"
	"log/slog"
)

// Logger returns a text logger writing to w.
// Debug mode logs everything; otherwise only errors.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
