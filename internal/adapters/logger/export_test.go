package logger

import (
	"io"
	"log/slog"
)

// White-box access to the error formatting helpers.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// NewConsoleHandlerForTest exports the terminal handler.
func NewConsoleHandlerForTest(w io.Writer, level slog.Leveler) slog.Handler {
	return newConsoleHandler(w, level)
}
