package pins

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinbuild/internal/core/ports"
)

// NodeID is the unique identifier for the pin store Graft node.
const NodeID graft.ID = "adapter.pins"

func init() {
	graft.Register(graft.Node[ports.PinStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PinStore, error) {
			return NewStore(NewFetcher()), nil
		},
	})
}
