package ports

import (
	"context"
	"io"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// Compiler runs the external compiler for one unit.
//
//go:generate mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Compile builds req.Unit and places its binaries under req.OutDir/bin.
	// Compiler output is streamed to out. A failure is reported as
	// domain.ErrExternalCompilation carrying the compiler's diagnostics.
	Compile(ctx context.Context, req domain.CompileRequest, out io.Writer) error
}
