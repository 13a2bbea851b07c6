package nodes

import (
	"context"
	"errors"

	"github.com/dshills/agentflow/graph"
)

const TypeHTTPRequest graph.NodeType = "http_request"

var errMissingURL = errors.New("nodes: http_request node requires a non-empty url input")

// HTTPRequest issues a GET or POST through the container's HTTP tool.Tool
// and surfaces the status code, headers, and body.
type HTTPRequest struct {
	graph.BaseNode
}

func newHTTPRequest(spec graph.NodeSpec) (graph.Node, error) {
	return &HTTPRequest{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *HTTPRequest) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	c, err := fromContext(gctx.Container)
	if err != nil {
		return nil, err
	}

	in := n.Inputs()
	if url, _ := in["url"].(string); url == "" {
		return nil, errMissingURL
	}

	out, err := c.HTTP.Call(ctx, in)
	if err != nil {
		return nil, err
	}
	return graph.Outputs(out), nil
}

func init() {
	graph.DefaultRegistry.Register(TypeHTTPRequest, newHTTPRequest)
}
