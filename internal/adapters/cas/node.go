package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinbuild/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the build info store Graft node.
	NodeID graft.ID = "adapter.build_info_store"

	// ArtifactsNodeID is the unique identifier for the artifact store Graft node.
	ArtifactsNodeID graft.ID = "adapter.artifact_store"
)

func init() {
	graft.Register(graft.Node[ports.BuildInfoStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BuildInfoStore, error) {
			return NewStore(), nil
		},
	})

	graft.Register(graft.Node[ports.ArtifactStore]{
		ID:        ArtifactsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ArtifactStore, error) {
			return NewArtifacts(), nil
		},
	})
}
