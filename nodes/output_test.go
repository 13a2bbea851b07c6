package nodes

import (
	"context"
	"testing"

	"github.com/dshills/agentflow/graph"
)

func TestOutput_PassesThroughResponse(t *testing.T) {
	n, err := newOutput(graph.NodeSpec{ID: "o1", Inputs: map[string]any{"response": "hello world"}})
	if err != nil {
		t.Fatalf("newOutput: %v", err)
	}

	out, err := n.(graph.Node).Execute(context.Background(), graph.NewContext(nil, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["text"] != "hello world" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestOutput_RegisteredAsTerminal(t *testing.T) {
	if !graph.DefaultRegistry.IsTerminal(TypeOutput) {
		t.Fatalf("expected output_text to be marked terminal")
	}
}
