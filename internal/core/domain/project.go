package domain

import "path/filepath"

// ToolchainSpec is the requested toolchain as written in the project descriptor.
type ToolchainSpec struct {
	Channel string
	Version string
	Targets []string
}

// PinRefs names the pins a project consumes.
type PinRefs struct {
	Lock           string
	Nixpkgs        string
	RustOverlay    string
	GraphGenerator string
}

// Project is the loaded, validated project descriptor.
// It is the explicit configuration value every command is driven by.
type Project struct {
	Root            string
	Workspace       InternedString
	Pins            PinRefs
	Toolchain       ToolchainSpec
	GraphPath       string
	NativeDeps      NativeDeps
	NativeOverrides map[string][]string
	LocalPatterns   []string
	ExtraTools      []string
	AppUnit         InternedString
}

// RequiredPins returns the pin names the project cannot build without.
func (p *Project) RequiredPins() []string {
	names := make([]string, 0, 3)
	for _, n := range []string{p.Pins.Nixpkgs, p.Pins.RustOverlay, p.Pins.GraphGenerator} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// InputFiles returns the files besides the local sources that a build
// request is read from.
func (p *Project) InputFiles() []string {
	return []string{filepath.Join(p.Root, ProjectFileName), p.Pins.Lock, p.GraphPath}
}
