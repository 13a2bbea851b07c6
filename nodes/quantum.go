package nodes

import (
	"context"

	"github.com/dshills/agentflow/graph"
)

const TypeQuantumRandom graph.NodeType = "quantum_random"

const (
	defaultNumQubits = 4
	defaultShots     = 100
)

// QuantumRandom draws one sample from the container's Quantum tool.Tool.
type QuantumRandom struct {
	graph.BaseNode
}

func newQuantumRandom(spec graph.NodeSpec) (graph.Node, error) {
	return &QuantumRandom{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *QuantumRandom) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	c, err := fromContext(gctx.Container)
	if err != nil {
		return nil, err
	}

	out, err := c.Quantum.Call(ctx, n.Inputs())
	if err != nil {
		return nil, err
	}
	return graph.Outputs(out), nil
}

func init() {
	graph.DefaultRegistry.Register(TypeQuantumRandom, newQuantumRandom)
}
