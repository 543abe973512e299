package domain

import "io"

// Command is an external process invocation.
type Command struct {
	// Name is a human-readable label used in logs and spans.
	Name string
	// Args holds the program and its arguments.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env holds per-command overrides applied last.
	Env map[string]string
}

// Stdio bundles the standard streams of an attached process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}
