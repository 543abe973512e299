package config

// Pinfile represents the structure of the pinbuild.yaml project descriptor.
type Pinfile struct {
	Version         string              `yaml:"version"`
	Workspace       string              `yaml:"workspace"`
	Root            string              `yaml:"root"`
	Pins            PinsDTO             `yaml:"pins"`
	Toolchain       ToolchainDTO        `yaml:"toolchain"`
	Graph           string              `yaml:"graph"`
	NativeDeps      []string            `yaml:"nativeDeps"`
	NativeOverrides map[string][]string `yaml:"nativeOverrides"`
	LocalPatterns   []string            `yaml:"localPatterns"`
	DevShell        DevShellDTO         `yaml:"devShell"`
	App             AppDTO              `yaml:"app"`
}

// PinsDTO names the lock file and the pins the project consumes.
type PinsDTO struct {
	Lock           string `yaml:"lock"`
	Nixpkgs        string `yaml:"nixpkgs"`
	RustOverlay    string `yaml:"rustOverlay"`
	GraphGenerator string `yaml:"graphGenerator"`
}

// ToolchainDTO is the requested compiler toolchain.
type ToolchainDTO struct {
	Channel string   `yaml:"channel"`
	Version string   `yaml:"version"`
	Targets []string `yaml:"targets"`
}

// DevShellDTO configures the development shell.
type DevShellDTO struct {
	ExtraTools []string `yaml:"extraTools"`
}

// AppDTO selects the unit launched by `pinbuild run`.
type AppDTO struct {
	Unit string `yaml:"unit"`
}
