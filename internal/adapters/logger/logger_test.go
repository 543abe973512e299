package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer without ANSI escapes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Golden(t *testing.T) {
	tests := []struct {
		name   string
		golden string
		log    func(l *logger.Logger)
	}{
		{name: "info", golden: "info_basic", log: func(l *logger.Logger) { l.Info("resolved toolchain stable@1.74.0") }},
		{name: "empty info", golden: "info_empty", log: func(l *logger.Logger) { l.Info("") }},
		{name: "warn", golden: "warn_basic", log: func(l *logger.Logger) { l.Warn("environment cache write failed") }},
		{name: "plain error", golden: "error_plain", log: func(l *logger.Logger) { l.Error(errors.New("boom")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.golden, buf.Bytes())
		})
	}
}

func TestLogger_ErrorChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	base := zerr.New("unknown source")
	err := zerr.With(zerr.Wrap(base, "nixpkgs-mozilla"), "source", "nixpkgs-mozilla")
	lg.Error(err)

	out := buf.String()
	assert.Contains(t, out, "Error: nixpkgs-mozilla")
	assert.Contains(t, out, "source: nixpkgs-mozilla")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ unknown source")
}

func TestLogger_ErrorLinesAlignUnderGlyph(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := zerr.With(zerr.Wrap(zerr.New("external compilation failed"), "cign"), "exit_code", 101)
	lg.Error(err)

	want := "✗ Error: cign\n" +
		"         exit_code: 101\n" +
		"\n" +
		"    Caused by:\n" +
		"      → external compilation failed\n"
	assert.Equal(t, want, buf.String())
}

func TestConsoleHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	log := slog.New(logger.NewConsoleHandlerForTest(&buf, slog.LevelInfo))
	log.With("unit", "cign").WithGroup("store").Warn("rebuild differs", "key", "0123")
	log.Debug("hidden")

	want := "! rebuild differs\n" +
		"    unit: cign\n" +
		"    store.key: 0123\n"
	assert.Equal(t, want, buf.String())
}

func TestLogger_NilError(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Error(zerr.With(zerr.New("unit not found"), "unit", "nonexistent"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "nonexistent", record["unit"])
	assert.Contains(t, record["error"], "unit not found")

	buf.Reset()
	lg.SetJSON(false)
	lg.Info("back to pretty")
	assert.Equal(t, "back to pretty\n", buf.String())
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "toolchain not found"}},
			want:    "Error: toolchain not found",
		},
		{
			name:    "cause chain",
			entries: []logger.ErrorEntry{{Message: "failed to build package set"}, {Message: "external compilation failed"}},
			want:    "Error: failed to build package set\n\n  Caused by:\n    → external compilation failed",
		},
		{
			name: "metadata sorted",
			entries: []logger.ErrorEntry{{
				Message:  "toolchain not found",
				Metadata: map[string]any{"version": "1.99.0", "channel": "stable"},
			}},
			want: "Error: toolchain not found\n       channel: stable\n       version: 1.99.0",
		},
		{
			name: "metadata on cause",
			entries: []logger.ErrorEntry{
				{Message: "build failed"},
				{Message: "cign", Metadata: map[string]any{"exit_code": 101}},
			},
			want: "Error: build failed\n\n  Caused by:\n    → cign\n      exit_code: 101",
		},
		{
			name:    "multiline compiler diagnostics",
			entries: []logger.ErrorEntry{{Message: "error[E0425]: cannot find value\n --> src/main.rs:3:5"}},
			want:    "Error: error[E0425]: cannot find value\n        --> src/main.rs:3:5",
		},
		{
			name: "empty",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}

func TestCollectErrorEntries(t *testing.T) {
	err := zerr.Wrap(errors.New("exit status 101"), "cargo build failed")
	entries := logger.CollectErrorEntries(err)

	require.Len(t, entries, 2)
	assert.Equal(t, "cargo build failed", entries[0].Message)
	assert.Equal(t, "exit status 101", entries[1].Message)
	assert.Nil(t, entries[1].Metadata)

	assert.Empty(t, logger.CollectErrorEntries(nil))
}
