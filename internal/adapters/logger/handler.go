package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/muesli/termenv"
	"go.trai.ch/pinbuild/internal/ui/output"
	"go.trai.ch/pinbuild/internal/ui/style"
)

// consoleHandler is the slog.Handler behind pinbuild's terminal output.
//
// Only the first line of a record is decorated: warnings and errors get a
// glyph and a color, info lines stay muted so unit output from the build
// renderer remains the focus. The remaining lines of a record, such as the
// cause chain of an error or the compiler output attached to a failed unit,
// are written undecorated and shifted under the glyph so their columns line
// up with the first line. Attributes follow as "key: value" lines, the same
// shape error metadata is printed in.
type consoleHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	// attrs carry the group prefix that was current when they were added.
	attrs  []slog.Attr
	prefix string
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{out: output.New(w), level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	glyph, color := decoration(r.Level)

	lines := strings.Split(r.Message, "\n")
	pad := ""
	if glyph != "" {
		lines[0] = glyph + " " + lines[0]
		pad = strings.Repeat(" ", utf8.RuneCountInString(glyph)+1)
	}

	var b strings.Builder
	b.WriteString(h.out.String(lines[0]).Foreground(color).String())
	b.WriteByte('\n')
	for _, line := range lines[1:] {
		if line != "" {
			b.WriteString(pad + line)
		}
		b.WriteByte('\n')
	}

	for _, a := range h.attrs {
		b.WriteString(pad + "  " + a.Key + ": " + a.Value.String() + "\n")
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(pad + "  " + h.prefix + a.Key + ": " + a.Value.String() + "\n")
		return true
	})

	_, err := h.out.WriteString(b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// decoration returns the glyph and color of the first line of a record.
func decoration(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.Yellow))
	default:
		return "", termenv.RGBColor(string(style.Slate))
	}
}
