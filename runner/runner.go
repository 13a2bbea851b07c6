// Package runner drives continuous workflows: graphs containing at least
// one autonomous node, re-executed on every tick instead of once.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/graph/emit"
	"github.com/google/uuid"
)

// State is a RunningWorkflow's lifecycle state.
type State int

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// TickResult is the versioned, JSON-safe projection exposed to external
// pollers via Status.LatestResults.
type TickResult struct {
	Tick          uint64
	Success       bool
	ExecutedNodes []string
	Results       map[string]any
	Error         string
	Version       uint64
}

// Status is the external snapshot returned by GetStatus.
type Status struct {
	ID            string
	State         State
	TickCount     uint64
	LastTickTime  time.Time
	LatestResults *TickResult
	ResultsVersion uint64
}

// OnTickComplete is invoked after each successful tick (or one-shot run)
// with the versioned result.
type OnTickComplete func(TickResult)

// OnError is invoked when a tick fails; the workflow stays RUNNING.
type OnError func(error)

type runningWorkflow struct {
	mu         sync.Mutex
	id         string
	callerID   string
	graph      *graph.Graph
	nodes      map[string]graph.Node
	autonomous map[string]bool
	gctx       *graph.Context
	state      State
	tickCount  uint64
	lastTick   time.Time
	latest     *TickResult
	version    uint64
	onTick     OnTickComplete
	onError    OnError
}

// Runner owns the tick goroutine shared by every continuous workflow
// registered against it. Construct with New; there is no package-level
// default instance, unlike graph.DefaultRegistry, since a process may
// legitimately want more than one runner with different admission limits.
type Runner struct {
	engine *graph.Engine
	cfg    runnerConfig

	mu        sync.Mutex
	workflows map[string]*runningWorkflow
	tickWG    sync.WaitGroup
	stopTick  chan struct{}
	tickAlive bool

	emitter emit.Emitter
}

// New builds a Runner that delegates one-shot and sub-graph execution to
// engine. emitter may be nil.
func New(engine *graph.Engine, emitter emit.Emitter, opts ...Option) *Runner {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &Runner{
		engine:    engine,
		cfg:       cfg,
		workflows: make(map[string]*runningWorkflow),
		emitter:   emitter,
	}
}

// autonomousNodeIDs returns the node ids declared graph.ModeContinuous in
// g whose built instance also implements graph.Ticker. Both conditions
// matter: Mode is the structural signal the affected-subgraph algorithm
// keys off of, Ticker is the behavioral contract the tick loop actually
// calls.
func autonomousNodeIDs(g *graph.Graph, nodes map[string]graph.Node) map[string]bool {
	ids := map[string]bool{}
	for _, spec := range g.Nodes {
		if spec.Mode != graph.ModeContinuous {
			continue
		}
		if _, ok := nodes[spec.ID].(graph.Ticker); ok {
			ids[spec.ID] = true
		}
	}
	return ids
}

// StartWorkflow implements §4.D: the start-time shortcut for graphs with
// no autonomous node, and the continuous path otherwise. Returns g.ID
// regardless of which path is taken.
func (r *Runner) StartWorkflow(ctx context.Context, g *graph.Graph, variables map[string]any, callerID string, onTick OnTickComplete, onErr OnError) (string, error) {
	if err := r.engine.Validate(g); err != nil {
		return "", err
	}

	nodes, err := r.engine.Build(g)
	if err != nil {
		return "", err
	}

	autonomous := autonomousNodeIDs(g, nodes)
	if len(autonomous) == 0 {
		result := r.engine.Execute(ctx, g, variables)
		if onTick != nil {
			onTick(toTickResult(0, 1, result))
		}
		return g.ID, nil
	}

	r.mu.Lock()
	if err := r.checkAdmission(callerID); err != nil {
		r.mu.Unlock()
		return "", err
	}

	wf := &runningWorkflow{
		id:         g.ID,
		callerID:   callerID,
		graph:      g,
		nodes:      nodes,
		autonomous: autonomous,
		gctx:       graph.NewContext(r.engine.Container(), variables),
		state:      StateRunning,
		onTick:     onTick,
		onError:    onErr,
	}
	r.workflows[g.ID] = wf
	r.ensureTickLoop()
	r.mu.Unlock()

	return g.ID, nil
}

// checkAdmission must be called with r.mu held.
func (r *Runner) checkAdmission(callerID string) error {
	if r.cfg.maxRunning > 0 && len(r.workflows) >= r.cfg.maxRunning {
		return &AdmissionError{Reason: "maximum running workflows reached"}
	}
	if r.cfg.maxRunningPerCaller > 0 {
		count := 0
		for _, wf := range r.workflows {
			if wf.callerID == callerID {
				count++
			}
		}
		if count >= r.cfg.maxRunningPerCaller {
			return &AdmissionError{Reason: fmt.Sprintf("caller %q has reached its running workflow limit", callerID)}
		}
	}
	return nil
}

// ensureTickLoop starts the shared tick goroutine if it isn't already
// running. Must be called with r.mu held.
func (r *Runner) ensureTickLoop() {
	if r.tickAlive {
		return
	}
	r.tickAlive = true
	r.stopTick = make(chan struct{})
	stop := r.stopTick
	r.tickWG.Add(1)
	go r.tickLoop(stop)
}

func (r *Runner) tickLoop(stop chan struct{}) {
	defer r.tickWG.Done()
	ticker := time.NewTicker(r.cfg.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tickOnce()
		}
	}
}

// tickOnce snapshots the running workflows and processes each one. Per
// §4.D, an exception (panic) during any one workflow's tick is contained
// to that workflow alone.
func (r *Runner) tickOnce() {
	r.mu.Lock()
	snapshot := make([]*runningWorkflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		snapshot = append(snapshot, wf)
	}
	r.mu.Unlock()

	for _, wf := range snapshot {
		r.processTick(wf)
	}
}

func (r *Runner) processTick(wf *runningWorkflow) {
	defer func() {
		if rec := recover(); rec != nil {
			wf.mu.Lock()
			onErr := wf.onError
			id := wf.id
			wf.mu.Unlock()
			if onErr != nil {
				onErr(&TickError{WorkflowID: id, Cause: fmt.Errorf("tick panic: %v", rec)})
			}
		}
	}()

	wf.mu.Lock()
	if wf.state != StateRunning {
		wf.mu.Unlock()
		return
	}
	wf.tickCount++
	wf.lastTick = time.Now()
	tick := wf.tickCount
	g := wf.graph
	nodes := wf.nodes
	autonomous := wf.autonomous
	gctx := wf.gctx
	onTick := wf.onTick
	onErr := wf.onError
	wf.mu.Unlock()

	triggered, failedNode, err := fireAutonomousNodes(context.Background(), nodes, autonomous, gctx)
	if err != nil {
		if onErr != nil {
			onErr(&TickError{WorkflowID: g.ID, NodeID: failedNode, Cause: err})
		}
		return
	}
	if len(triggered) == 0 {
		return
	}

	derived := buildAffectedSubgraph(g, triggered)
	result := r.engine.ExecuteWithContext(context.Background(), derived, gctx)

	r.emitter.Emit(emit.Event{WorkflowID: g.ID, Msg: "tick_processed", Meta: map[string]any{"tick": tick, "success": result.Success}})

	if !result.Success {
		if onErr != nil {
			onErr(&TickError{WorkflowID: g.ID, Cause: fmt.Errorf("sub-graph execution failed: %s", result.Error)})
		}
		return
	}

	wf.mu.Lock()
	wf.version++
	version := wf.version
	wf.latest = toTickResultPtr(tick, version, result)
	latest := *wf.latest
	wf.mu.Unlock()

	if onTick != nil {
		onTick(latest)
	}
}

// fireAutonomousNodes calls OnTick on every node implementing graph.Ticker,
// recording triggered node IDs and writing their outputs into gctx so the
// affected sub-graph execution can see them as upstream results. Per §4.D,
// a single node's OnTick error ends processing for that tick: autonomous
// nodes not yet polled are skipped and no sub-graph runs this tick, but
// the workflow keeps running.
func fireAutonomousNodes(ctx context.Context, nodes map[string]graph.Node, autonomous map[string]bool, gctx *graph.Context) (triggered []string, failedNode string, err error) {
	for id := range autonomous {
		ticker, ok := nodes[id].(graph.Ticker)
		if !ok {
			continue
		}
		out, fired, tickErr := ticker.OnTick(ctx, gctx)
		if tickErr != nil {
			return nil, id, tickErr
		}
		if !fired {
			continue
		}
		gctx.NodeOutputs[id] = out
		triggered = append(triggered, id)
	}
	return triggered, "", nil
}

// StopWorkflow transitions id to STOPPED and removes it from the registry.
// Reports whether a running workflow with that id existed.
func (r *Runner) StopWorkflow(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[id]
	if !ok {
		return false
	}
	wf.mu.Lock()
	wf.state = StateStopped
	wf.mu.Unlock()
	delete(r.workflows, id)
	if len(r.workflows) == 0 {
		r.stopTickLoopLocked()
	}
	return true
}

// StopAll stops every registered workflow and joins the tick goroutine.
func (r *Runner) StopAll() {
	r.mu.Lock()
	for id, wf := range r.workflows {
		wf.mu.Lock()
		wf.state = StateStopped
		wf.mu.Unlock()
		delete(r.workflows, id)
	}
	r.stopTickLoopLocked()
	r.mu.Unlock()
	r.tickWG.Wait()
}

// stopTickLoopLocked must be called with r.mu held.
func (r *Runner) stopTickLoopLocked() {
	if !r.tickAlive {
		return
	}
	close(r.stopTick)
	r.tickAlive = false
}

// GetStatus returns a snapshot of workflow id, or (Status{}, false) if it
// is not currently registered as running.
func (r *Runner) GetStatus(id string) (Status, bool) {
	r.mu.Lock()
	wf, ok := r.workflows[id]
	r.mu.Unlock()
	if !ok {
		return Status{}, false
	}

	wf.mu.Lock()
	defer wf.mu.Unlock()
	return Status{
		ID:             wf.id,
		State:          wf.state,
		TickCount:      wf.tickCount,
		LastTickTime:   wf.lastTick,
		LatestResults:  wf.latest,
		ResultsVersion: wf.version,
	}, true
}

// ListRunning returns the ids of every currently registered workflow.
func (r *Runner) ListRunning() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.workflows))
	for id := range r.workflows {
		ids = append(ids, id)
	}
	return ids
}

// NewWorkflowID mints an id for a graph document missing one, mirroring the
// boundary layer's id synthesis for connections (see graph.FromCallerDocument).
func NewWorkflowID() string {
	return uuid.NewString()
}

func toTickResult(tick, version uint64, result *graph.Result) TickResult {
	return *toTickResultPtr(tick, version, result)
}

func toTickResultPtr(tick, version uint64, result *graph.Result) *TickResult {
	return &TickResult{
		Tick:          tick,
		Success:       result.Success,
		ExecutedNodes: append([]string(nil), result.ExecutionOrder...),
		Results:       sanitize(result.FinalOutputs, maxSanitizeDepth).(map[string]any),
		Error:         result.Error,
		Version:       version,
	}
}
