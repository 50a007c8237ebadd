package record

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ripple/internal/core/ports"
)

// NodeID is the unique identifier for the record parser Graft node.
const NodeID graft.ID = "adapter.record"

func init() {
	graft.Register(graft.Node[ports.RecordParser]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RecordParser, error) {
			return NewParser(), nil
		},
	})
}
