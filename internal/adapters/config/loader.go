// Package config provides the project descriptor loader for pinbuild.
package config

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only descriptor version understood by the loader.
const SupportedVersion = "1"

// Default pin names used when the descriptor leaves them empty.
const (
	DefaultNixpkgsPin     = "nixpkgs"
	DefaultRustOverlayPin = "nixpkgs-mozilla"
)

var validNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load discovers the project descriptor starting at cwd and returns the
// validated project.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var pinfile Pinfile
	if err := readAndUnmarshalYAML(configPath, &pinfile); err != nil {
		return nil, err
	}

	project, err := l.buildProject(configPath, &pinfile)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return project, nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func readAndUnmarshalYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return nil
}

func (l *Loader) buildProject(configPath string, pf *Pinfile) (*domain.Project, error) {
	if pf.Version != SupportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unsupported version"), "version", pf.Version)
	}
	if err := validateName(pf.Workspace); err != nil {
		return nil, zerr.With(err, "field", "workspace")
	}

	root := resolveRoot(configPath, pf.Root)

	toolchain, err := buildToolchain(pf.Toolchain)
	if err != nil {
		return nil, err
	}

	native := domain.NewNativeDeps(pf.NativeDeps...)
	overrides, err := buildOverrides(pf.NativeOverrides, native)
	if err != nil {
		return nil, err
	}

	appUnit := pf.App.Unit
	if appUnit == "" {
		appUnit = pf.Workspace
	}
	if err := validateName(appUnit); err != nil {
		return nil, zerr.With(err, "field", "app.unit")
	}

	patterns := canonicalizeStrings(pf.LocalPatterns)
	if len(patterns) == 0 {
		l.Logger.Warn(fmt.Sprintf("no localPatterns in %s; local units are keyed by Cargo.toml and Cargo.lock only", domain.ProjectFileName))
		patterns = []string{"Cargo.lock", "Cargo.toml"}
	}

	return &domain.Project{
		Root:      root,
		Workspace: domain.NewInternedString(pf.Workspace),
		Pins: domain.PinRefs{
			Lock:           resolvePath(root, defaultString(pf.Pins.Lock, domain.DefaultPinsFileName)),
			Nixpkgs:        defaultString(pf.Pins.Nixpkgs, DefaultNixpkgsPin),
			RustOverlay:    defaultString(pf.Pins.RustOverlay, DefaultRustOverlayPin),
			GraphGenerator: pf.Pins.GraphGenerator,
		},
		Toolchain:       toolchain,
		GraphPath:       resolvePath(root, defaultString(pf.Graph, domain.DefaultGraphFileName)),
		NativeDeps:      native,
		NativeOverrides: overrides,
		LocalPatterns:   patterns,
		ExtraTools:      canonicalizeStrings(pf.DevShell.ExtraTools),
		AppUnit:         domain.NewInternedString(appUnit),
	}, nil
}

func buildToolchain(dto ToolchainDTO) (domain.ToolchainSpec, error) {
	channel := defaultString(dto.Channel, domain.ChannelStable)
	if !domain.IsKnownChannel(channel) {
		return domain.ToolchainSpec{}, zerr.With(zerr.Wrap(domain.ErrUnknownChannel, channel), "channel", channel)
	}
	if dto.Version == "" {
		return domain.ToolchainSpec{}, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "toolchain version is required"), "field", "toolchain.version")
	}
	return domain.ToolchainSpec{
		Channel: channel,
		Version: dto.Version,
		Targets: canonicalizeStrings(dto.Targets),
	}, nil
}

// buildOverrides checks that every override names declared native deps.
func buildOverrides(raw map[string][]string, native domain.NativeDeps) (map[string][]string, error) {
	overrides := make(map[string][]string, len(raw))
	for _, unit := range slices.Sorted(maps.Keys(raw)) {
		if err := validateName(unit); err != nil {
			return nil, zerr.With(err, "field", "nativeOverrides")
		}
		deps := canonicalizeStrings(raw[unit])
		for _, dep := range deps {
			if !native.Contains(dep) {
				err := zerr.With(zerr.Wrap(domain.ErrUndeclaredNativeDependency, dep), "unit", unit)
				return nil, zerr.With(err, "dependency", dep)
			}
		}
		overrides[unit] = deps
	}
	return overrides, nil
}

func validateName(name string) error {
	if !validNameRegex.MatchString(name) {
		return zerr.With(domain.ErrInvalidUnitName, "name", name)
	}
	return nil
}

// resolveRoot returns the absolute project root. A relative root is taken
// relative to the directory holding the descriptor.
func resolveRoot(configPath, root string) string {
	return resolvePath(filepath.Dir(configPath), root)
}

func resolvePath(base, p string) string {
	if p == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.DeleteFunc(slices.Compact(sorted), func(s string) bool { return s == "" })
}
