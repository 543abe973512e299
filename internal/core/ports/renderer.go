package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for build progress output.
// It decouples telemetry collection from presentation.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes any buffered output.
	Stop() error

	// OnPlanEmit is called with the units that will be compiled.
	OnPlanEmit(units []string)

	// OnUnitStart is called when a unit begins.
	// spanID: unique identifier for this unit execution
	// parentID: spanID of the parent (empty if root)
	OnUnitStart(spanID, parentID, name string, startTime time.Time)

	// OnUnitLog is called when a unit emits output.
	// data may contain partial lines.
	OnUnitLog(spanID string, data []byte)

	// OnUnitComplete is called when a unit finishes; err is nil on success.
	OnUnitComplete(spanID string, endTime time.Time, err error)
}
