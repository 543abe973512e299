// Package shell provides the process executor used for compilation, launched
// apps and development shells.
package shell

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// ErrEmptyCommand is returned when a command has no program.
var ErrEmptyCommand = zerr.New("command has no program")

type ptyProcess struct {
	cmd    *exec.Cmd
	ioDone <-chan struct{}
}

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()
	<-p.ioDone
	return err
}

// Executor implements ports.Executor using os/exec and pty.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd in a PTY and waits for it to complete. The PTY merges the
// process output, which is copied to stdout. The environment is hermetic:
// only an allow-list of system variables is inherited.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, env []string, stdout, _ io.Writer) error {
	if len(cmd.Args) == 0 {
		return zerr.With(ErrEmptyCommand, "command", cmd.Name)
	}

	cmdEnv := resolveEnvironment(os.Environ(), env, cmd.Env)
	c := command(ctx, cmd, cmdEnv)

	ptmx, err := pty.Start(c)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to start pty"), "command", cmd.Name)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		_, _ = io.Copy(stdout, ptmx)
	}()

	proc := &ptyProcess{cmd: c, ioDone: ioDone}
	if err := proc.Wait(); err != nil {
		return exitError(err, cmd)
	}
	return nil
}

// Attach runs cmd connected to stdio. env is used as given, with the
// per-command overrides applied on top.
func (e *Executor) Attach(ctx context.Context, cmd *domain.Command, env []string, stdio domain.Stdio) error {
	if len(cmd.Args) == 0 {
		return zerr.With(ErrEmptyCommand, "command", cmd.Name)
	}

	cmdEnv := mergeEnv(env, cmd.Env)
	c := command(ctx, cmd, cmdEnv)
	c.Stdin = stdio.In
	c.Stdout = stdio.Out
	c.Stderr = stdio.Err

	if err := c.Run(); err != nil {
		return exitError(err, cmd)
	}
	return nil
}

func command(ctx context.Context, cmd *domain.Command, env []string) *exec.Cmd {
	name := cmd.Args[0]

	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // commands are built by pinbuild
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = env
	return c
}

func exitError(err error, cmd *domain.Command) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	wrapped := zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	return zerr.With(wrapped, "command", cmd.Name)
}

// ExitCode extracts the exit code recorded on an executor error.
func ExitCode(err error) (int, bool) {
	var zErr *zerr.Error
	if !errors.As(err, &zErr) {
		return 0, false
	}
	code, ok := zErr.Metadata()["exit_code"].(int)
	return code, ok
}

// allowListedEnvVars are the system environment variables a hermetic command
// inherits.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges the allow-listed system environment, the
// materialised environment (whose PATH is prepended) and the command overrides.
func resolveEnvironment(sysEnv, nixEnv []string, cmdEnv map[string]string) []string {
	envMap := filterSystemEnv(sysEnv)
	applyNixEnv(envMap, nixEnv)
	maps.Copy(envMap, cmdEnv)
	return toList(envMap)
}

func mergeEnv(env []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(env)+len(overrides))
	for _, entry := range env {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	maps.Copy(envMap, overrides)
	return toList(envMap)
}

func toList(envMap map[string]string) []string {
	result := make([]string, 0, len(envMap))
	for _, k := range slices.Sorted(maps.Keys(envMap)) {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

func applyNixEnv(envMap map[string]string, nixEnv []string) {
	for _, entry := range nixEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				envMap[k] = v + string(os.PathListSeparator) + sysPath
				continue
			}
		}
		envMap[k] = v
	}
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env rather than the PATH of the current process.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
