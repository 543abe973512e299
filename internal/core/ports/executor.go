package ports

import (
	"context"
	"io"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// Executor defines the interface for running external commands.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs cmd with the specified environment and waits for it.
	//
	// The env parameter contains environment variables in "KEY=VALUE" format,
	// typically provided by an EnvironmentFactory for hermetic execution.
	// Output is streamed to stdout and stderr.
	Execute(ctx context.Context, cmd *domain.Command, env []string, stdout, stderr io.Writer) error

	// Attach runs cmd connected to the given standard streams, for interactive
	// shells and launched apps. The environment is used as given.
	Attach(ctx context.Context, cmd *domain.Command, env []string, stdio domain.Stdio) error
}
