package nodes

import (
	"context"
	"testing"

	"github.com/dshills/agentflow/graph"
)

func TestText_UsesInputOverProperty(t *testing.T) {
	n, err := newText(graph.NodeSpec{ID: "t1", Inputs: map[string]any{"text": "fallback"}})
	if err != nil {
		t.Fatalf("newText: %v", err)
	}
	accessor := n.(graph.InputAccessor)
	accessor.SetInputs(map[string]any{"text": "from connection"})

	out, err := n.(graph.Node).Execute(context.Background(), graph.NewContext(nil, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["text"] != "from connection" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestText_FallsBackToEmptyString(t *testing.T) {
	n, err := newText(graph.NodeSpec{ID: "t2"})
	if err != nil {
		t.Fatalf("newText: %v", err)
	}
	out, err := n.(graph.Node).Execute(context.Background(), graph.NewContext(nil, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["text"] != "" {
		t.Fatalf("expected empty string, got %+v", out)
	}
}
