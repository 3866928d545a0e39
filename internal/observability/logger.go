package observability

import (
	"io"
	"log/slog"
	"strings"
)

// NewFileLogger builds a text logger writing to w. The terminal UI owns
// stdout, so its logs go to a file instead of the shared stdout logger.
// Unknown levels fall back to info.
func NewFileLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelInfo
	if strings.EqualFold(strings.TrimSpace(level), "warning") {
		lvl = slog.LevelWarn
	} else if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
