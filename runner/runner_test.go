package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/agentflow/graph"
)

// onceNode is a trivial ModeOnce node: echoes its "text" input.
type onceNode struct {
	graph.BaseNode
}

func newOnceNode(spec graph.NodeSpec) (graph.Node, error) {
	return &onceNode{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *onceNode) Execute(context.Context, *graph.Context) (graph.Outputs, error) {
	text, _ := n.Inputs()["text"].(string)
	return graph.Outputs{"text": text}, nil
}

// tickingNode fires on every Nth tick with an incrementing counter output.
type tickingNode struct {
	graph.BaseNode
	every   int
	calls   int64
}

func newTickingNode(spec graph.NodeSpec) (graph.Node, error) {
	every := 1
	if v, ok := spec.Inputs["every"].(float64); ok {
		every = int(v)
	}
	return &tickingNode{BaseNode: graph.NewBaseNode(spec), every: every}, nil
}

func (n *tickingNode) Execute(context.Context, *graph.Context) (graph.Outputs, error) {
	return graph.Outputs{"count": atomic.LoadInt64(&n.calls)}, nil
}

func (n *tickingNode) OnTick(ctx context.Context, gctx *graph.Context) (graph.Outputs, bool, error) {
	count := atomic.AddInt64(&n.calls, 1)
	if int(count)%n.every != 0 {
		return nil, false, nil
	}
	return graph.Outputs{"count": count}, true, nil
}

// relayNode copies its "in" input straight through to "out", preserving
// type, so a test can observe exactly what value a downstream node
// received from an upstream autonomous node's tick.
type relayNode struct {
	graph.BaseNode
}

func newRelayNode(spec graph.NodeSpec) (graph.Node, error) {
	return &relayNode{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *relayNode) Execute(context.Context, *graph.Context) (graph.Outputs, error) {
	return graph.Outputs{"out": n.Inputs()["in"]}, nil
}

// failingTicker always fires with an error, so every tick routes through
// the OnError callback instead of producing a sub-graph execution.
type failingTicker struct {
	graph.BaseNode
}

func newFailingTicker(spec graph.NodeSpec) (graph.Node, error) {
	return &failingTicker{BaseNode: graph.NewBaseNode(spec)}, nil
}

func (n *failingTicker) Execute(context.Context, *graph.Context) (graph.Outputs, error) {
	return graph.Outputs{}, nil
}

func (n *failingTicker) OnTick(context.Context, *graph.Context) (graph.Outputs, bool, error) {
	return nil, false, errFailingTick
}

var errFailingTick = errors.New("tick source unavailable")

func testRegistry() *graph.Registry {
	r := graph.NewRegistry()
	r.Register("once", newOnceNode)
	r.Register("ticking", newTickingNode)
	r.Register("relay", newRelayNode)
	r.Register("failing_ticker", newFailingTicker)
	r.MarkTerminal("once")
	r.MarkTerminal("relay")
	return r
}

func testEngine() *graph.Engine {
	return graph.New(nil, graph.WithRegistry(testRegistry()))
}

// A graph with no autonomous node takes the start-time shortcut: it runs
// exactly once and is never registered as running.
func TestStartWorkflow_ShortcutForNoAutonomousNode(t *testing.T) {
	g := &graph.Graph{
		ID:    "wf-shortcut",
		Nodes: []graph.NodeSpec{{ID: "A", Type: "once", Inputs: map[string]any{"text": "hi"}}},
	}
	r := New(testEngine(), nil)

	var got TickResult
	var called bool
	id, err := r.StartWorkflow(context.Background(), g, nil, "caller1", func(tr TickResult) {
		called = true
		got = tr
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "wf-shortcut" {
		t.Fatalf("expected graph id returned, got %q", id)
	}
	if !called {
		t.Fatalf("expected on_tick_complete to be invoked")
	}
	if !got.Success || got.Results["text"] != "hi" {
		t.Fatalf("unexpected shortcut result: %+v", got)
	}
	if _, ok := r.GetStatus(id); ok {
		t.Fatalf("shortcut graph must not be registered as running")
	}
	if len(r.ListRunning()) != 0 {
		t.Fatalf("expected no running workflows")
	}
}

// A graph with an autonomous node is registered as running and ticks
// until stopped. The downstream relay node must observe the exact value
// OnTick produced on the clock node, not a freshly-built instance's reset
// Execute output — this is the regression case for the derived sub-graph
// never re-running the triggering autonomous node itself.
func TestStartWorkflow_ContinuousPathTicks(t *testing.T) {
	g := &graph.Graph{
		ID: "wf-continuous",
		Nodes: []graph.NodeSpec{
			{ID: "clock", Type: "ticking", Mode: graph.ModeContinuous, Inputs: map[string]any{"every": float64(1)}},
			{ID: "out", Type: "relay"},
		},
		Connections: []graph.Connection{
			{ID: "c1", SourceNode: "clock", SourceOutput: "count", TargetNode: "out", TargetInput: "in"},
		},
	}
	r := New(testEngine(), nil, WithTickInterval(10*time.Millisecond))
	defer r.StopAll()

	var mu sync.Mutex
	var ticks int
	var lastResult TickResult
	id, err := r.StartWorkflow(context.Background(), g, nil, "caller1", func(tr TickResult) {
		mu.Lock()
		ticks++
		lastResult = tr
		mu.Unlock()
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := r.GetStatus(id); !ok {
		t.Fatalf("expected continuous workflow to be registered")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := ticks
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 ticks, got %d", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	status, ok := r.GetStatus(id)
	if !ok || status.ResultsVersion == 0 {
		t.Fatalf("expected a nonzero results version, got %+v", status)
	}

	mu.Lock()
	out := lastResult.Results["out"]
	mu.Unlock()
	count, ok := out.(int64)
	if !ok || count <= 0 {
		t.Fatalf("expected relay node to observe a positive propagated tick count, got %T %v", out, out)
	}

	if !r.StopWorkflow(id) {
		t.Fatalf("expected StopWorkflow to report success")
	}
	if _, ok := r.GetStatus(id); ok {
		t.Fatalf("expected workflow to be unregistered after stop")
	}
}

// A failing OnTick is reported via OnError as a *TickError and does not
// stop the tick loop or unregister the workflow.
func TestProcessTick_OnTickErrorReportedWithoutStoppingWorkflow(t *testing.T) {
	g := &graph.Graph{
		ID: "wf-failing-tick",
		Nodes: []graph.NodeSpec{
			{ID: "bad", Type: "failing_ticker", Mode: graph.ModeContinuous},
		},
	}
	r := New(testEngine(), nil, WithTickInterval(10*time.Millisecond))
	defer r.StopAll()

	var mu sync.Mutex
	var gotErr error
	id, err := r.StartWorkflow(context.Background(), g, nil, "caller1", nil, func(e error) {
		mu.Lock()
		gotErr = e
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		e := gotErr
		mu.Unlock()
		if e != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected OnError to be called")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	var tickErr *TickError
	if !errors.As(gotErr, &tickErr) {
		t.Fatalf("expected *TickError, got %T: %v", gotErr, gotErr)
	}
	if tickErr.NodeID != "bad" {
		t.Fatalf("expected NodeID 'bad', got %q", tickErr.NodeID)
	}

	if _, ok := r.GetStatus(id); !ok {
		t.Fatalf("expected workflow to still be registered after a tick error")
	}
}

// The affected sub-graph must include non-autonomous predecessors of a
// triggered node's downstream closure, even when those predecessors sit
// outside the direct downstream path — but never the triggered autonomous
// node itself, since its current-tick output was already produced by
// OnTick and sits in the context; re-running its Execute would overwrite
// that value with a freshly-built instance's idle output.
func TestBuildAffectedSubgraph_IncludesDependencyClosure(t *testing.T) {
	g := &graph.Graph{
		ID: "wf-deps",
		Nodes: []graph.NodeSpec{
			{ID: "auto", Type: "ticking", Mode: graph.ModeContinuous},
			{ID: "static", Type: "once", Inputs: map[string]any{"text": "base"}},
			{ID: "merge", Type: "once"},
			{ID: "unrelated", Type: "once"},
		},
		Connections: []graph.Connection{
			{ID: "c1", SourceNode: "auto", SourceOutput: "count", TargetNode: "merge", TargetInput: "x"},
			{ID: "c2", SourceNode: "static", SourceOutput: "text", TargetNode: "merge", TargetInput: "y"},
		},
	}

	derived := buildAffectedSubgraph(g, []string{"auto"})

	ids := map[string]bool{}
	for _, n := range derived.Nodes {
		ids[n.ID] = true
	}
	if ids["auto"] {
		t.Fatalf("triggered autonomous node must not be re-executed via the derived subgraph, got %v", ids)
	}
	if !ids["merge"] || !ids["static"] {
		t.Fatalf("expected merge, static in derived subgraph, got %v", ids)
	}
	if ids["unrelated"] {
		t.Fatalf("unrelated node must not be pulled into the derived subgraph")
	}
}

// Admission limits refuse start_workflow once the cap is reached.
func TestStartWorkflow_AdmissionLimit(t *testing.T) {
	r := New(testEngine(), nil, WithMaxRunning(1), WithTickInterval(10*time.Millisecond))
	defer r.StopAll()

	g1 := &graph.Graph{ID: "wf1", Nodes: []graph.NodeSpec{{ID: "auto", Type: "ticking", Mode: graph.ModeContinuous}}}
	g2 := &graph.Graph{ID: "wf2", Nodes: []graph.NodeSpec{{ID: "auto", Type: "ticking", Mode: graph.ModeContinuous}}}

	if _, err := r.StartWorkflow(context.Background(), g1, nil, "caller1", nil, nil); err != nil {
		t.Fatalf("first start should succeed: %v", err)
	}
	if _, err := r.StartWorkflow(context.Background(), g2, nil, "caller1", nil, nil); err == nil {
		t.Fatalf("expected admission error on second start")
	}
}

// sanitize replaces values past the max depth with a placeholder instead
// of recursing indefinitely.
func TestSanitize_MaxDepthPlaceholder(t *testing.T) {
	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": "leaf"}}}
	out := sanitize(deep, 2)
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected top level map to survive, got %T", out)
	}
	inner, ok := m["a"].(map[string]any)
	if !ok {
		t.Fatalf("expected one level of recursion to survive, got %T", m["a"])
	}
	if _, isMap := inner["b"].(map[string]any); isMap {
		t.Fatalf("expected depth-exceeded value to be replaced by a placeholder")
	}
}
