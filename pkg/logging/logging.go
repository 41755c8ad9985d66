package logging

import (
	"fmt"
	"io"

	"golang.org/x/exp/slog"
)

// Setup installs a text handler writing to w as the default logger.
// level is one of debug, info, warn or error.
func Setup(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}
