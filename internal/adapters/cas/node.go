package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the artifact packer Graft node.
const NodeID graft.ID = "adapter.artifact_packer"

func init() {
	graft.Register(graft.Node[ports.ArtifactPacker]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ArtifactPacker, error) {
			return NewArchiver(), nil
		},
	})
}
