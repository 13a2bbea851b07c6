package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/agentflow/graph"
)

const TypeText graph.NodeType = "text"

// Text is a flexible text passthrough node: if an upstream connection
// supplies "text" it wins, otherwise the node falls back to its own
// "text" input (set directly in the graph document).
type Text struct {
	graph.BaseNode
}

func newText(spec graph.NodeSpec) (graph.Node, error) {
	return &Text{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *Text) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	text := n.Inputs()["text"]
	return graph.Outputs{"text": fmt.Sprintf("%v", orEmpty(text))}, nil
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func init() {
	graph.DefaultRegistry.Register(TypeText, newText)
}
