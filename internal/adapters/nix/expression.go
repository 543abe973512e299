package nix

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// attrPath matches a Nix attribute path such as "pkgs.openssl" or "llvmPackages_16.lldb".
var attrPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'-]*(\.[A-Za-z_][A-Za-z0-9_'-]*)*$`)

// rustExtensions are added to every toolchain so editors and debuggers find the sources.
var rustExtensions = []string{"rust-src"}

// generateNixExpr renders the environment of spec for system.
//
// Every source is fetched with builtins.fetchTarball at its pinned hash, so
// evaluation never consults channels or the registry.
func generateNixExpr(system string, spec domain.EnvSpec) (string, error) {
	nixpkgs, ok := spec.Pins[spec.Nixpkgs]
	if !ok {
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownSource, spec.Nixpkgs), "source", spec.Nixpkgs)
	}

	packages := slices.Clone(spec.Packages)
	slices.Sort(packages)
	packages = slices.Compact(packages)
	for _, p := range packages {
		if !attrPath.MatchString(p) {
			return "", zerr.With(zerr.New("invalid package attribute"), "package", p)
		}
	}

	var b strings.Builder
	b.WriteString("let\n")
	fmt.Fprintf(&b, "  system = %q;\n", system)
	writeFetch(&b, "nixpkgsSrc", nixpkgs)

	withToolchain := !spec.Toolchain.IsZero()
	if withToolchain {
		overlay, ok := spec.Pins[spec.RustOverlay]
		if !ok {
			return "", zerr.With(zerr.Wrap(domain.ErrUnknownSource, spec.RustOverlay), "source", spec.RustOverlay)
		}
		writeFetch(&b, "rustOverlaySrc", overlay)
		b.WriteString("  pkgs = import nixpkgsSrc {\n")
		b.WriteString("    inherit system;\n")
		b.WriteString("    overlays = [ (import \"${rustOverlaySrc}/rust-overlay.nix\") ];\n")
		b.WriteString("  };\n")
		writeToolchain(&b, spec.Toolchain)
	} else {
		b.WriteString("  pkgs = import nixpkgsSrc { inherit system; };\n")
	}

	b.WriteString("in\n")
	b.WriteString("pkgs.mkShell {\n")
	b.WriteString("  buildInputs = [\n")
	if withToolchain {
		b.WriteString("    rust\n")
	}
	for _, p := range packages {
		fmt.Fprintf(&b, "    pkgs.%s\n", p)
	}
	b.WriteString("  ];\n")
	b.WriteString("}\n")

	return b.String(), nil
}

func writeFetch(b *strings.Builder, name string, pin domain.PinnedSource) {
	fmt.Fprintf(b, "  %s = builtins.fetchTarball {\n", name)
	fmt.Fprintf(b, "    url = %q;\n", pin.FetchURL())
	fmt.Fprintf(b, "    sha256 = %q;\n", pin.Hash)
	b.WriteString("  };\n")
}

func writeToolchain(b *strings.Builder, tc domain.Toolchain) {
	b.WriteString("  rust = (pkgs.rustChannelOf {\n")
	if tc.Channel == domain.ChannelStable {
		fmt.Fprintf(b, "    channel = %q;\n", tc.Version)
	} else {
		fmt.Fprintf(b, "    channel = %q;\n", tc.Channel)
		fmt.Fprintf(b, "    date = %q;\n", tc.Version)
	}
	fmt.Fprintf(b, "    sha256 = %q;\n", tc.ManifestHash)
	b.WriteString("  }).rust.override {\n")
	fmt.Fprintf(b, "    targets = [ %s ];\n", quoteList(tc.Targets))
	fmt.Fprintf(b, "    extensions = [ %s ];\n", quoteList(rustExtensions))
	b.WriteString("  };\n")
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, " ")
}
