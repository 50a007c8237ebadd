package planner

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ripple/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/ripple/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/ripple/internal/adapters/record"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/ripple/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/ripple/internal/core/ports"
)

// NodeID is the unique identifier for the planner Graft node.
const NodeID graft.ID = "engine.planner"

func init() {
	graft.Register(graft.Node[*Planner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			record.NodeID,
			fs.HasherNodeID,
			cas.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Planner, error) {
			parser, err := graft.Dep[ports.RecordParser](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.BuildInfoStore](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(parser, hasher, store, tracer), nil
		},
	})
}
