// Package nix implements the EnvironmentFactory port by evaluating pinned Nix
// expressions with `nix print-dev-env`.
package nix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/pinbuild/internal/adapters/atomicfile"
	"go.trai.ch/pinbuild/internal/adapters/toolchain"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"go4.org/xdgdir"
	"golang.org/x/sync/singleflight"
)

// evaluator runs `nix print-dev-env` on an expression file.
type evaluator func(ctx context.Context, exprPath string) ([]byte, error)

// EnvFactory implements ports.EnvironmentFactory using Nix.
type EnvFactory struct {
	cacheDir     string
	system       string
	systemErr    error
	evaluate     evaluator
	requestGroup singleflight.Group
}

// NewEnvFactory creates a new EnvironmentFactory caching under the user cache directory.
func NewEnvFactory() *EnvFactory {
	return NewEnvFactoryWithCache(defaultCacheDir())
}

// NewEnvFactoryWithCache creates a new EnvironmentFactory with a specific cache directory.
func NewEnvFactoryWithCache(cacheDir string) *EnvFactory {
	return newEnvFactory(cacheDir, toolchain.Host)
}

// newEnvFactory records the host's Nix system. An unsupported host is only
// reported once an environment is requested.
func newEnvFactory(cacheDir string, host func() (toolchain.Platform, error)) *EnvFactory {
	platform, err := host()
	return &EnvFactory{
		cacheDir:  cacheDir,
		system:    platform.NixSystem,
		systemErr: err,
		evaluate:  printDevEnv,
	}
}

func defaultCacheDir() string {
	if dir := xdgdir.Cache.Path(); dir != "" {
		return filepath.Join(dir, "pinbuild", domain.EnvDirName)
	}
	return domain.DefaultEnvCachePath()
}

// GetEnvironment materialises spec and returns its variables as "KEY=VALUE"
// strings suitable for process execution.
func (e *EnvFactory) GetEnvironment(ctx context.Context, spec domain.EnvSpec) ([]string, error) {
	if e.systemErr != nil {
		return nil, e.systemErr
	}
	envID := spec.ID()

	result, err, _ := e.requestGroup.Do(envID, func() (any, error) {
		cachePath := filepath.Join(e.cacheDir, envID+".json")
		if cachedEnv, err := LoadEnvFromCache(cachePath); err == nil {
			return cachedEnv, nil
		}

		nixExpr, err := generateNixExpr(e.system, spec)
		if err != nil {
			return nil, err
		}

		tmpPath, cleanupFn, err := createNixTempFile(nixExpr)
		if err != nil {
			return nil, err
		}
		defer cleanupFn()

		output, err := e.evaluate(ctx, tmpPath)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrNixEvalFailed.Error()), "environment", envID)
		}

		env, err := ParseNixDevEnv(output)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrNixEvalFailed.Error())
		}

		// Cache write failures are not fatal; the next run evaluates again.
		_ = SaveEnvToCache(cachePath, env)

		return env, nil
	})
	if err != nil {
		return nil, err
	}

	env := slices.Clone(result.([]string))

	// Temporary directories point at the system temp rather than the
	// transient build directory nix reports.
	tmpDir := "/tmp"
	env = append(env,
		fmt.Sprintf("TMPDIR=%s", tmpDir),
		fmt.Sprintf("TEMP=%s", tmpDir),
		fmt.Sprintf("TMP=%s", tmpDir),
	)
	slices.Sort(env)

	return env, nil
}

func printDevEnv(ctx context.Context, exprPath string) ([]byte, error) {
	//nolint:gosec // exprPath is a temp file created by us
	cmd := exec.CommandContext(ctx, "nix", "print-dev-env", "--json", "--file", exprPath)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to execute nix print-dev-env"), "stderr", strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// createNixTempFile creates a temporary file with the given Nix expression.
func createNixTempFile(nixExpr string) (tmpPath string, cleanup func(), err error) {
	tmpFile, err := os.CreateTemp("", "pinbuild-env-*.nix")
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to create temp nix file")
	}

	tmpPath = tmpFile.Name()
	cleanup = func() {
		_ = os.Remove(tmpPath)
	}

	if _, writeErr := tmpFile.WriteString(nixExpr); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, zerr.Wrap(writeErr, "failed to write nix expression")
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, zerr.Wrap(closeErr, "failed to close temp nix file")
	}

	return tmpPath, cleanup, nil
}

// LoadEnvFromCache attempts to load a cached environment.
func LoadEnvFromCache(path string) ([]string, error) {
	//nolint:gosec // Path is constructed from trusted cache directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}

	var env []string
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}

	return env, nil
}

// SaveEnvToCache saves an environment to the cache.
func SaveEnvToCache(path string, env []string) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}

	if err := atomicfile.Write(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}

	return nil
}

// nixDevEnvOutput represents the JSON structure from `nix print-dev-env --json`.
type nixDevEnvOutput struct {
	Variables map[string]nixVariable `json:"variables"`
}

type nixVariable struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// ParseNixDevEnv parses the JSON output from nix print-dev-env and extracts
// the exported environment variables.
func ParseNixDevEnv(jsonData []byte) ([]string, error) {
	var output nixDevEnvOutput
	if err := json.Unmarshal(jsonData, &output); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal nix output")
	}

	env := make([]string, 0, len(output.Variables))
	for key, variable := range output.Variables {
		if !ShouldIncludeVar(key) || variable.Type != "exported" {
			continue
		}

		var valueStr string
		switch v := variable.Value.(type) {
		case string:
			valueStr = v
		case []any:
			parts := make([]string, len(v))
			for i, part := range v {
				if s, ok := part.(string); ok {
					parts[i] = s
				}
			}
			valueStr = strings.Join(parts, ":")
		default:
			continue
		}

		env = append(env, fmt.Sprintf("%s=%s", key, valueStr))
	}

	slices.Sort(env)
	return env, nil
}

// excludedVars are interactive or build-sandbox variables that must keep the
// caller's values.
var excludedVars = []string{
	"TERM",
	"SHELL",
	"EDITOR",
	"VISUAL",
	"PAGER",
	"LESS",
	"HOME",
	"USER",
	"LOGNAME",
	"PS1",
	"PS2",
	"SHLVL",
	"PWD",
	"OLDPWD",
	"_",
	"TMPDIR",
	"TEMP",
	"TMP",
	"TEMPDIR",
	"NIX_BUILD_TOP",
	"NIX_BUILD_CORES",
	"NIX_LOG_FD",
	"NIX_ENFORCE_PURITY",
}

// ShouldIncludeVar determines if an environment variable should be included.
func ShouldIncludeVar(key string) bool {
	return !slices.Contains(excludedVars, key)
}
