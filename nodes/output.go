package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/agentflow/graph"
)

const TypeOutput graph.NodeType = "output_text"

// Output is a terminal node: whatever it receives on "response" becomes
// the graph's final "text" output.
type Output struct {
	graph.BaseNode
}

func newOutput(spec graph.NodeSpec) (graph.Node, error) {
	return &Output{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *Output) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	response := n.Inputs()["response"]
	return graph.Outputs{"text": fmt.Sprintf("%v", orEmpty(response))}, nil
}

func init() {
	graph.DefaultRegistry.Register(TypeOutput, newOutput)
	graph.DefaultRegistry.MarkTerminal(TypeOutput)
}
