package descriptions

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the description registry Graft node.
const NodeID graft.ID = "descriptions.registry"

func init() {
	graft.Register(graft.Node[ports.Transformer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Transformer, error) {
			return Builtin(), nil
		},
	})
}
