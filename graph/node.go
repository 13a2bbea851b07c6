package graph

import "context"

// NodeType is an opaque tag identifying which constructor the registry
// should use to build a node instance. Registered at process startup;
// a graph referencing an unregistered tag fails validation.
type NodeType string

// ExecutionMode classifies how the runner treats a node instance.
type ExecutionMode int

const (
	// ModeOnce is the default: the node only runs when the engine reaches
	// it in topological order, never polled by the runner.
	ModeOnce ExecutionMode = iota

	// ModeContinuous marks an autonomous node: the runner polls OnTick on
	// every tick, and a non-nil result is treated as the node firing.
	ModeContinuous

	// ModeTriggered marks a node that only runs as part of a sub-graph
	// triggered by an autonomous node elsewhere in the graph (it never
	// fires on its own, but participates in dependency closures like any
	// other non-autonomous node).
	ModeTriggered
)

func (m ExecutionMode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeTriggered:
		return "triggered"
	default:
		return "once"
	}
}

// Outputs is the result of one node execution: a mapping from output name
// to value, handed to downstream nodes via Context.NodeOutputs and merged
// into Result.FinalOutputs for terminal output nodes.
type Outputs map[string]any

// Node is the runtime contract every constructed node instance satisfies.
//
// Execute reads already-resolved values from its own Inputs field (set by
// the engine before each call), may read ctx.Variables and
// ctx.NodeOutputs for upstream nodes, and may reach external collaborators
// through ctx.Container. Returning an error halts the current execution
// pass; the failure is recorded against this node and no further nodes run.
type Node interface {
	Execute(ctx context.Context, gctx *Context) (Outputs, error)
}

// NodeFunc adapts a plain function to Node, mirroring the pattern used for
// handler functions in net/http.
type NodeFunc func(ctx context.Context, gctx *Context) (Outputs, error)

// Execute implements Node.
func (f NodeFunc) Execute(ctx context.Context, gctx *Context) (Outputs, error) {
	return f(ctx, gctx)
}

// Ticker is implemented by autonomous (ModeContinuous) node instances.
// OnTick is called once per runner tick; a non-nil, ok=true result means
// "I am firing now" and the runner treats it exactly as if Execute had
// just produced these outputs.
type Ticker interface {
	OnTick(ctx context.Context, gctx *Context) (out Outputs, ok bool, err error)
}

// Initializer is an optional post-build hook: called once per node
// instance after every node in the graph has been constructed, and before
// the first Execute. Intended for cross-node wiring (registering
// callbacks on a sibling node), never for I/O.
type Initializer interface {
	Initialize(g *Graph, nodes map[string]Node) error
}

// ModeProvider is implemented by node instances (or their constructors'
// wrapper) that declare an ExecutionMode other than the default ModeOnce.
// A node that doesn't implement this is always treated as ModeOnce,
// matching the base contract's "default ONCE" rule.
type ModeProvider interface {
	ExecutionMode() ExecutionMode
}

// Constructor builds a fresh Node instance for one NodeSpec. The engine
// passes the spec as it appears in the graph; implementations that build
// their instance with NewBaseNode get a deep copy of spec.Inputs, so
// mutating the returned node's inputs during execution can never leak
// back into the graph definition.
type Constructor func(spec NodeSpec) (Node, error)

// InputAccessor is implemented by node instances whose inputs the engine
// resolves before each Execute call (connection values, then template
// substitution). BaseNode implements this; node authors embed BaseNode
// instead of reimplementing it.
type InputAccessor interface {
	Inputs() map[string]any
	SetInputs(map[string]any)
}

// BaseNode holds the per-instance state every node constructor populates:
// the deep-copied input bag, the declared type tag, and the opaque
// metadata/position bags passed through from the graph document untouched.
//
// Embed BaseNode in concrete node types and call NewBaseNode from the
// registered Constructor; it satisfies InputAccessor so the engine can
// resolve connections and templates without reflecting into the concrete
// node type.
type BaseNode struct {
	ID       string
	Type     NodeType
	inputs   map[string]any
	Metadata map[string]any
	Position map[string]any
}

// NewBaseNode deep-copies spec.Inputs (via a JSON round trip, since the
// input bag is an opaque map[string]any with no fixed schema) so that
// mutating inputs during execution never affects the graph definition.
func NewBaseNode(spec NodeSpec) BaseNode {
	return BaseNode{
		ID:       spec.ID,
		Type:     spec.Type,
		inputs:   deepCopyMap(spec.Inputs),
		Metadata: spec.Metadata,
		Position: spec.Position,
	}
}

// Inputs returns the node's current input bag.
func (b *BaseNode) Inputs() map[string]any { return b.inputs }

// SetInputs replaces the node's input bag. Used by the engine to apply
// connection-resolved and template-resolved values before Execute, and to
// restore the original bag afterward.
func (b *BaseNode) SetInputs(m map[string]any) { b.inputs = m }

var _ InputAccessor = (*BaseNode)(nil)
