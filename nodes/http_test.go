package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/tool"
)

func TestHTTPRequest_DelegatesToContainerTool(t *testing.T) {
	mockTool := &tool.MockTool{
		ToolName:  "http_request",
		Responses: []map[string]any{{"status_code": 200, "body": "ok"}},
	}
	c := &Container{HTTP: mockTool}
	n, err := newHTTPRequest(graph.NodeSpec{ID: "h1", Inputs: map[string]any{"url": "http://example.com"}})
	if err != nil {
		t.Fatalf("newHTTPRequest: %v", err)
	}

	out, err := n.(graph.Node).Execute(context.Background(), graph.NewContext(c, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["status_code"] != 200 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if mockTool.CallCount() != 1 {
		t.Fatalf("expected one tool call, got %d", mockTool.CallCount())
	}
}

func TestHTTPRequest_MissingURL(t *testing.T) {
	c := &Container{HTTP: &tool.MockTool{}}
	n, err := newHTTPRequest(graph.NodeSpec{ID: "h2"})
	if err != nil {
		t.Fatalf("newHTTPRequest: %v", err)
	}
	_, err = n.(graph.Node).Execute(context.Background(), graph.NewContext(c, nil))
	if !errors.Is(err, errMissingURL) {
		t.Fatalf("expected errMissingURL, got %v", err)
	}
}

func TestHTTPRequest_MissingContainer(t *testing.T) {
	n, err := newHTTPRequest(graph.NodeSpec{ID: "h3", Inputs: map[string]any{"url": "http://example.com"}})
	if err != nil {
		t.Fatalf("newHTTPRequest: %v", err)
	}
	_, err = n.(graph.Node).Execute(context.Background(), graph.NewContext(nil, nil))
	if !errors.Is(err, errMissingContainer) {
		t.Fatalf("expected errMissingContainer, got %v", err)
	}
}
