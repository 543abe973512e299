package cargo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/pinbuild/internal/adapters/shell"
	"go.trai.ch/pinbuild/internal/adapters/toolchain"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// diagnosticsTail bounds how much compiler output is attached to an error.
const diagnosticsTail = 16 * 1024

// targetDirName is where cargo keeps its incremental state, relative to the
// workspace root.
var targetDirName = filepath.Join("target", "pinbuild")

// Compiler implements ports.Compiler by running cargo through an Executor.
type Compiler struct {
	executor ports.Executor
}

// NewCompiler creates a new Compiler.
func NewCompiler(executor ports.Executor) *Compiler {
	return &Compiler{executor: executor}
}

// Compile builds req.Unit in release mode against the locked dependency set
// and copies its binaries into req.OutDir/bin.
func (c *Compiler) Compile(ctx context.Context, req domain.CompileRequest, out io.Writer) error {
	name := req.Unit.Name.String()
	targetDir := filepath.Join(req.Root, targetDirName)
	host, err := toolchain.Host()
	if err != nil {
		return err
	}
	triple, err := crossTarget(req.Toolchain.Targets, host.Triple)
	if err != nil {
		return zerr.With(err, "unit", name)
	}

	args := []string{"cargo", "build", "--release", "--locked", "-p", name, "--target-dir", targetDir}
	if triple != "" {
		args = append(args, "--target", triple)
	}

	cmd := &domain.Command{
		Name: name,
		Args: args,
		Dir:  req.Root,
		Env:  reproducibleEnv(req.Root),
	}

	tail := &tailBuffer{limit: diagnosticsTail}
	w := io.MultiWriter(out, tail)
	if err := c.executor.Execute(ctx, cmd, req.Env, w, w); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		exitCode, _ := shell.ExitCode(err)
		wrapped := zerr.With(zerr.Wrap(err, domain.ErrExternalCompilation.Error()), "unit", name)
		wrapped = zerr.With(wrapped, "exit_code", exitCode)
		return zerr.With(wrapped, "output", tail.String())
	}

	releaseDir := filepath.Join(targetDir, "release")
	if triple != "" {
		releaseDir = filepath.Join(targetDir, triple, "release")
	}
	binDir := filepath.Join(req.OutDir, "bin")
	if err := os.MkdirAll(binDir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrBuildExecutionFailed.Error())
	}
	for _, bin := range req.Unit.Binaries {
		if err := copyFile(filepath.Join(releaseDir, bin), filepath.Join(binDir, bin)); err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrBuildExecutionFailed.Error()), "unit", name)
			return zerr.With(err, "binary", bin)
		}
	}

	return nil
}

// crossTarget returns the triple to pass to cargo, or "" for host builds.
// The host is built whenever it is among the toolchain targets; a single
// foreign target is cross-compiled to. Several foreign targets leave the
// output binary undefined and are rejected.
func crossTarget(targets []string, host string) (string, error) {
	switch {
	case len(targets) == 0 || slices.Contains(targets, host):
		return "", nil
	case len(targets) == 1:
		return targets[0], nil
	default:
		joined := strings.Join(targets, ", ")
		err := zerr.Wrap(domain.ErrInvalidTarget, "no build target: the host "+host+" is not among "+joined)
		return "", zerr.With(zerr.With(err, "host", host), "targets", joined)
	}
}

// reproducibleEnv fixes every input cargo would otherwise read from the
// clock, the incremental cache or the checkout location.
func reproducibleEnv(root string) map[string]string {
	return map[string]string{
		"SOURCE_DATE_EPOCH": "1",
		"CARGO_INCREMENTAL": "0",
		"RUSTFLAGS":         fmt.Sprintf("--remap-path-prefix=%s=/build", root),
	}
}

func copyFile(src, dst string) error {
	//nolint:gosec // src is a cargo output
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	//nolint:gosec // dst is inside the staging directory
	outFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.ArtifactPerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(outFile, in); err != nil {
		_ = outFile.Close()
		return err
	}
	return outFile.Close()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}
