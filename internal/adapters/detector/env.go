// Package detector inspects the terminal and CI environment.
package detector

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Environment describes how pinbuild is attached to the user.
type Environment struct {
	// StdinTTY reports whether standard input is a terminal.
	StdinTTY bool
	// StdoutTTY reports whether standard output is a terminal.
	StdoutTTY bool
	// CI reports whether a CI system is driving the process.
	CI bool
	// NoColor reports whether NO_COLOR is set.
	NoColor bool
}

// Detect inspects the running process.
func Detect() Environment {
	return Environment{
		StdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		StdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
		CI:        isCI(os.Getenv("CI")),
		NoColor:   os.Getenv("NO_COLOR") != "",
	}
}

func isCI(value string) bool {
	return value == "true" || value == "1"
}

// Interactive reports whether an interactive subshell can be attached.
func (e Environment) Interactive() bool {
	return e.StdinTTY && e.StdoutTTY && !e.CI
}

// ColorProfile returns the colour profile for renderer and log output.
func (e Environment) ColorProfile() termenv.Profile {
	switch {
	case e.NoColor:
		return termenv.Ascii
	case e.StdoutTTY && !e.CI:
		return termenv.ANSI256
	default:
		return termenv.ANSI
	}
}
