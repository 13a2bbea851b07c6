// Package nodes provides the built-in node implementations registered
// against graph.DefaultRegistry: text passthrough, terminal output,
// autonomous scheduling, inference, memory read/write, HTTP requests, and
// quantum-RNG sampling. Each type embeds graph.BaseNode and registers
// itself against graph.DefaultRegistry from an init func.
package nodes

import (
	"github.com/dshills/agentflow/inference"
	"github.com/dshills/agentflow/rng"
	"github.com/dshills/agentflow/storage"
	"github.com/dshills/agentflow/tool"
)

// Container bundles the external collaborators a deployment wires up for
// its graphs. graph.Context.Container is untyped (any); every node in
// this package type-asserts it to *Container before reaching outside the
// graph itself.
//
// HTTP and Quantum are exposed as tool.Tool rather than their underlying
// httpclient.Client/rng.QuantumSource contracts directly, so every
// side-effecting node calls out through one uniform shape; Inference and
// Store keep their richer native shapes since nodes need their typed
// results, not a generic map.
type Container struct {
	Inference *inference.Queue
	Store     storage.Store
	HTTP      tool.Tool
	Quantum   tool.Tool
}

// NewQuantumTool adapts an rng.QuantumSource to the tool.Tool contract so
// it can be wired into Container.Quantum alongside HTTP.
func NewQuantumTool(src rng.QuantumSource) tool.Tool {
	return &quantumTool{src: src}
}

// fromContext type-asserts gctx.Container to *Container, returning a
// descriptive error when a deployment forgot to wire one in.
func fromContext(container any) (*Container, error) {
	c, ok := container.(*Container)
	if !ok || c == nil {
		return nil, errMissingContainer
	}
	return c, nil
}
