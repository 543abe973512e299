package detector_test

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/pinbuild/internal/adapters/detector"
)

func TestEnvironment_Interactive(t *testing.T) {
	tests := []struct {
		name     string
		env      detector.Environment
		expected bool
	}{
		{name: "terminal", env: detector.Environment{StdinTTY: true, StdoutTTY: true}, expected: true},
		{name: "CI forces non-interactive", env: detector.Environment{StdinTTY: true, StdoutTTY: true, CI: true}},
		{name: "piped stdin", env: detector.Environment{StdoutTTY: true}},
		{name: "redirected stdout", env: detector.Environment{StdinTTY: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.env.Interactive())
		})
	}
}

func TestEnvironment_ColorProfile(t *testing.T) {
	assert.Equal(t, termenv.Ascii, detector.Environment{StdoutTTY: true, NoColor: true}.ColorProfile())
	assert.Equal(t, termenv.ANSI256, detector.Environment{StdoutTTY: true}.ColorProfile())
	assert.Equal(t, termenv.ANSI, detector.Environment{StdoutTTY: true, CI: true}.ColorProfile())
	assert.Equal(t, termenv.ANSI, detector.Environment{}.ColorProfile())
}

func TestDetect_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, detector.Detect().CI)

	t.Setenv("CI", "1")
	assert.True(t, detector.Detect().CI)

	t.Setenv("CI", "false")
	assert.False(t, detector.Detect().CI)

	t.Setenv("NO_COLOR", "1")
	assert.True(t, detector.Detect().NoColor)
}
