package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/agentflow/graph/emit"
)

// Engine validates a graph, builds node instances, orders them
// topologically, and runs them once in that order. It never retries,
// never parallelizes node execution, and never schedules beyond a single
// pass — the runner (package runner) is responsible for repeated,
// triggered re-execution of sub-graphs.
type Engine struct {
	cfg     engineConfig
	emitter emit.Emitter
}

// New builds an Engine. emitter may be nil (treated as emit.NewNullEmitter()).
func New(emitter emit.Emitter, opts ...Option) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Engine{cfg: cfg, emitter: emitter}
}

// Execute runs g to completion (or first failure) and returns the graph
// result. variables seeds Context.Variables for template resolution.
func (e *Engine) Execute(ctx context.Context, g *Graph, variables map[string]any) *Result {
	start := e.cfg.clock.Now()

	result := &Result{GraphID: g.ID, FinalOutputs: map[string]any{}}

	if err := e.validate(g); err != nil {
		result.Success = false
		result.Error = err.Error()
		result.TotalTime = e.cfg.clock.Now().Sub(start)
		e.cfg.metrics.observeExecution(g.ID, false)
		e.emitter.Emit(emit.Event{WorkflowID: g.ID, Msg: "validation_failed", Meta: map[string]any{"error": err.Error()}})
		return result
	}

	nodes, err := e.build(g)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.TotalTime = e.cfg.clock.Now().Sub(start)
		e.cfg.metrics.observeExecution(g.ID, false)
		return result
	}

	order, err := e.topoSort(g)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.TotalTime = e.cfg.clock.Now().Sub(start)
		e.cfg.metrics.observeExecution(g.ID, false)
		e.emitter.Emit(emit.Event{WorkflowID: g.ID, Msg: "cycle_detected", Meta: map[string]any{"error": err.Error()}})
		return result
	}

	gctx := NewContext(e.cfg.container, variables)
	return e.executeOrdered(ctx, g, nodes, order, gctx, result, start)
}

// Container returns the external-collaborator container configured via
// WithContainer, so callers building their own Context (the runner's
// continuous-workflow path) can reuse it instead of duplicating wiring.
func (e *Engine) Container() any {
	return e.cfg.container
}

// ExecuteWithContext runs g using an existing Context (the runner's
// continuous-workflow path: the Context's lifetime spans the whole
// workflow, not just one pass). NodeOutputs already present in gctx are
// preserved and visible to nodes in this pass via upstream lookups.
func (e *Engine) ExecuteWithContext(ctx context.Context, g *Graph, gctx *Context) *Result {
	start := e.cfg.clock.Now()
	result := &Result{GraphID: g.ID, FinalOutputs: map[string]any{}}

	if err := e.validate(g); err != nil {
		result.Success = false
		result.Error = err.Error()
		result.TotalTime = e.cfg.clock.Now().Sub(start)
		return result
	}
	nodes, err := e.build(g)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.TotalTime = e.cfg.clock.Now().Sub(start)
		return result
	}
	order, err := e.topoSort(g)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.TotalTime = e.cfg.clock.Now().Sub(start)
		return result
	}
	return e.executeOrdered(ctx, g, nodes, order, gctx, result, start)
}

// Validate runs the same structural checks Execute runs before building or
// ordering anything. The runner calls this at start_workflow time so a
// malformed continuous workflow never reaches the tick loop.
func (e *Engine) Validate(g *Graph) error {
	return e.validate(g)
}

// validate implements §4.C step 1: non-empty node list, every connection
// endpoint resolves, every node type is registered.
func (e *Engine) validate(g *Graph) error {
	if len(g.Nodes) == 0 {
		return &ValidationError{Tag: TagValidation, Reason: "graph has no nodes"}
	}

	ids := g.nodeByID()
	for _, c := range g.Connections {
		if _, ok := ids[c.SourceNode]; !ok {
			return &ValidationError{Tag: TagValidation, Reason: fmt.Sprintf("connection %s references unknown source node %q", c.ID, c.SourceNode)}
		}
		if _, ok := ids[c.TargetNode]; !ok {
			return &ValidationError{Tag: TagValidation, Reason: fmt.Sprintf("connection %s references unknown target node %q", c.ID, c.TargetNode)}
		}
	}

	for _, n := range g.Nodes {
		if n.Type == "" {
			return &ValidationError{Tag: TagUnknownNodeType, Reason: fmt.Sprintf("node %s has no type", n.ID)}
		}
		if _, ok := e.cfg.registry.Lookup(n.Type); !ok {
			return &ValidationError{Tag: TagUnknownNodeType, Reason: fmt.Sprintf("unregistered node type %q for node %s", n.Type, n.ID)}
		}
	}
	return nil
}

// Build constructs every node instance for g and runs their Initialize
// hooks, without validating or executing anything. The runner uses this to
// build a continuous workflow's nodes once up front, so it can inspect
// them for Ticker implementations between ticks instead of rebuilding a
// fresh instance (and losing any internal state) on every pass.
func (e *Engine) Build(g *Graph) (map[string]Node, error) {
	return e.build(g)
}

// build implements §4.C step 2: construct every node instance, then call
// Initialize on those that implement it.
func (e *Engine) build(g *Graph) (map[string]Node, error) {
	nodes := make(map[string]Node, len(g.Nodes))
	for _, spec := range g.Nodes {
		ctor, ok := e.cfg.registry.Lookup(spec.Type)
		if !ok {
			return nil, &ValidationError{Tag: TagUnknownNodeType, Reason: fmt.Sprintf("unregistered node type %q for node %s", spec.Type, spec.ID)}
		}
		inst, err := ctor(spec)
		if err != nil {
			return nil, fmt.Errorf("building node %s (%s): %w", spec.ID, spec.Type, err)
		}
		nodes[spec.ID] = inst
	}
	for _, spec := range g.Nodes {
		if init, ok := nodes[spec.ID].(Initializer); ok {
			if err := init.Initialize(g, nodes); err != nil {
				return nil, fmt.Errorf("initializing node %s: %w", spec.ID, err)
			}
		}
	}
	return nodes, nil
}

// topoSort implements §4.C step 3: Kahn's algorithm with a FIFO tie-break
// for determinism, over nodes in g.Nodes insertion order.
func (e *Engine) topoSort(g *Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))
	insertionOrder := make([]string, 0, len(g.Nodes))

	for _, n := range g.Nodes {
		inDegree[n.ID] = 0
		insertionOrder = append(insertionOrder, n.ID)
	}
	for _, c := range g.Connections {
		inDegree[c.TargetNode]++
	}

	// Seed the queue in insertion order so ties resolve deterministically.
	queue := make([]string, 0, len(g.Nodes))
	queued := make(map[string]bool, len(g.Nodes))
	for _, id := range insertionOrder {
		if inDegree[id] == 0 {
			queue = append(queue, id)
			queued[id] = true
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, c := range g.outgoingConnections(id) {
			inDegree[c.TargetNode]--
			if inDegree[c.TargetNode] == 0 && !queued[c.TargetNode] {
				queue = append(queue, c.TargetNode)
				queued[c.TargetNode] = true
			}
		}
	}

	if len(order) != len(g.Nodes) {
		reached := make(map[string]bool, len(order))
		for _, id := range order {
			reached[id] = true
		}
		var unreached []string
		for _, id := range insertionOrder {
			if !reached[id] {
				unreached = append(unreached, id)
			}
		}
		return nil, &CycleError{Unreached: unreached}
	}
	return order, nil
}

// executeOrdered implements §4.C steps 4–5.
func (e *Engine) executeOrdered(ctx context.Context, g *Graph, nodes map[string]Node, order []string, gctx *Context, result *Result, start time.Time) *Result {
	result.ExecutionOrder = order
	specs := g.nodeByID()

	for _, id := range order {
		node := nodes[id]
		spec := specs[id]
		nodeStart := e.cfg.clock.Now()

		outputs, execErr := e.executeOne(ctx, g, node, spec, gctx)
		elapsed := e.cfg.clock.Now().Sub(nodeStart)
		e.cfg.metrics.observeNode(g.ID, spec.Type, elapsed, execErr != nil)

		if execErr != nil {
			result.NodeResults = append(result.NodeResults, NodeResult{
				NodeID: id, Success: false, Outputs: Outputs{}, Error: execErr.Error(), ExecutionTime: elapsed,
			})
			result.Success = false
			result.Error = (&NodeError{NodeID: id, NodeType: spec.Type, Cause: execErr}).Error()
			e.emitter.Emit(emit.Event{WorkflowID: g.ID, NodeID: id, Msg: "node_failed", Meta: map[string]any{"error": execErr.Error()}})
			e.cfg.metrics.observeExecution(g.ID, false)
			result.TotalTime = e.cfg.clock.Now().Sub(start)
			return result
		}

		gctx.NodeOutputs[id] = outputs
		result.NodeResults = append(result.NodeResults, NodeResult{
			NodeID: id, Success: true, Outputs: outputs, ExecutionTime: elapsed,
		})
		e.emitter.Emit(emit.Event{WorkflowID: g.ID, NodeID: id, Msg: "node_executed"})
	}

	result.Success = true
	e.collectFinalOutputs(g, order, gctx, result)
	result.TotalTime = e.cfg.clock.Now().Sub(start)
	e.cfg.metrics.observeExecution(g.ID, true)
	return result
}

// executeOne implements §4.C step 4(a)-(b): resolve inputs, invoke, revert.
func (e *Engine) executeOne(ctx context.Context, g *Graph, node Node, spec NodeSpec, gctx *Context) (outputs Outputs, err error) {
	accessor, hasInputs := node.(InputAccessor)

	var original map[string]any
	if hasInputs {
		original = shallowCopyMap(accessor.Inputs())
		resolved := e.resolveInputs(g, spec, accessor.Inputs(), gctx)
		accessor.SetInputs(resolved)
		defer accessor.SetInputs(original)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.nodeTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.nodeTimeout)
		defer cancel()
	}

	outputs, err = e.safeExecute(runCtx, node, gctx)
	if err != nil {
		return nil, err
	}
	if outputs == nil {
		outputs = Outputs{}
	}
	return outputs, nil
}

// safeExecute recovers a panicking node so one bad implementation can't
// take down the engine's caller — panics are surfaced as ordinary node
// failures per §4.B ("may raise; the engine treats exceptions as failure").
func (e *Engine) safeExecute(ctx context.Context, node Node, gctx *Context) (out Outputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return node.Execute(ctx, gctx)
}

// resolveInputs implements §4.C step 4(a): connection values override
// inputs, then exact-match "{{name}}" templates are substituted from
// ctx.Variables when present; otherwise the raw template string is left
// for the node's own default handling.
func (e *Engine) resolveInputs(g *Graph, spec NodeSpec, base map[string]any, gctx *Context) map[string]any {
	resolved := shallowCopyMap(base)

	for _, c := range g.incomingConnections(spec.ID) {
		upstream, ok := gctx.NodeOutputs[c.SourceNode]
		if !ok {
			continue
		}
		val, ok := upstream[c.SourceOutput]
		if !ok {
			continue
		}
		resolved[c.TargetInput] = val
	}

	connected := make(map[string]bool)
	for _, c := range g.incomingConnections(spec.ID) {
		connected[c.TargetInput] = true
	}

	for key, val := range resolved {
		if connected[key] {
			continue
		}
		s, ok := val.(string)
		if !ok {
			continue
		}
		name, isTemplate := templateVar(s)
		if !isTemplate {
			continue
		}
		if v, present := gctx.Variables[name]; present {
			resolved[key] = v
		}
	}

	return resolved
}

// collectFinalOutputs implements §4.C step 5: merge the outputs of every
// terminal output node, later writers (by execution order) overwriting
// earlier ones on key conflict.
func (e *Engine) collectFinalOutputs(g *Graph, order []string, gctx *Context, result *Result) {
	specs := g.nodeByID()
	for _, id := range order {
		spec := specs[id]
		if !e.cfg.registry.IsTerminal(spec.Type) {
			continue
		}
		outputs, ok := gctx.NodeOutputs[id]
		if !ok {
			continue
		}
		for k, v := range outputs {
			result.FinalOutputs[k] = v
		}
	}
}
