package graph

// Context is the per-activation runtime state shared across a graph (or
// sub-graph) execution. One-shot runs create and discard a Context; the
// runner keeps one alive for the lifetime of a continuous workflow.
//
// Container is deliberately untyped (any): this package doesn't know the
// shape of a particular deployment's external collaborators (model,
// storage, rng, http client). Node implementations type-assert it to
// whatever concrete container type their deployment wires up.
type Context struct {
	Container   any
	Variables   map[string]any
	NodeOutputs map[string]Outputs
}

// NewContext seeds a fresh Context with the given container and variables.
// NodeOutputs always starts empty.
func NewContext(container any, variables map[string]any) *Context {
	if variables == nil {
		variables = map[string]any{}
	}
	return &Context{
		Container:   container,
		Variables:   variables,
		NodeOutputs: make(map[string]Outputs),
	}
}
