package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dshills/agentflow/graph"
	"github.com/google/uuid"
)

// EngineFactory builds the engine instance the worker uses for one job.
// Injected rather than held directly so callers can hand out a fresh
// engine per job (e.g. one with per-tenant metrics labels) or share one
// process-wide instance.
type EngineFactory func() *graph.Engine

// Queue is a single-worker, durable FIFO per §4.E. Jobs begin execution in
// strict enqueue order; there is no preemption, and a job's result is
// never observable before it reaches a terminal status.
type Queue struct {
	mu            sync.Mutex
	store         Store
	jobs          []*Job
	cfg           queueConfig
	engineFactory EngineFactory

	wake    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New loads any previously persisted jobs (demoting RUNNING to QUEUED per
// the recovery rule) and returns a Queue ready for Start.
func New(store Store, engineFactory EngineFactory, opts ...Option) (*Queue, error) {
	cfg := defaultQueueConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &Queue{
		store:         store,
		cfg:           cfg,
		engineFactory: engineFactory,
		wake:          make(chan struct{}, 1),
	}

	loaded, err := store.Load()
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("loading job store: %w", err)
	}
	for i := range loaded {
		j := loaded[i]
		if j.Status == StatusRunning {
			j.Status = StatusQueued
			j.StartedAt = nil
		}
		q.jobs = append(q.jobs, &j)
	}
	q.applyRetention()
	q.recomputePositions()
	if err := q.persistLocked(); err != nil {
		return nil, err
	}

	return q, nil
}

// Start launches the worker loop. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.stop = make(chan struct{})
	stop := q.stop
	q.mu.Unlock()

	q.wg.Add(1)
	go q.workerLoop(ctx, stop)
}

// Stop signals the worker to exit after its current job (if any) and
// waits for it to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	close(q.stop)
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue implements §4.E's admission algorithm under the queue lock.
func (q *Queue) Enqueue(workflowDoc map[string]any, options map[string]any) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	queuedCount := 0
	caller := callerID(options)
	callerActive := 0
	for _, j := range q.jobs {
		if j.Status == StatusQueued {
			queuedCount++
		}
		if (j.Status == StatusQueued || j.Status == StatusRunning) && j.CallerID == caller {
			callerActive++
		}
	}

	if q.cfg.maxQueueSize > 0 && queuedCount >= q.cfg.maxQueueSize {
		return nil, &AdmissionError{Reason: "queue is full"}
	}
	if q.cfg.maxJobsPerUser > 0 && callerActive >= q.cfg.maxJobsPerUser {
		return nil, &AdmissionError{Reason: fmt.Sprintf("caller %q has reached its job limit", caller)}
	}

	job := &Job{
		ID:          uuid.NewString(),
		WorkflowDoc: workflowDoc,
		Options:     options,
		CallerID:    caller,
		Status:      StatusQueued,
		CreatedAt:   time.Now(),
	}
	q.jobs = append(q.jobs, job)
	q.recomputePositions()
	if err := q.persistLocked(); err != nil {
		return nil, err
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return job, nil
}

// GetStatus returns the observer-facing projection of job id.
func (q *Queue) GetStatus(id string) (StatusView, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.findLocked(id)
	if j == nil {
		return StatusView{}, false
	}
	return j.statusView(), true
}

// GetResult returns the stored result for a COMPLETED or FAILED job.
func (q *Queue) GetResult(id string) (ResultView, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.findLocked(id)
	if j == nil || !j.terminal() || j.Status == StatusCancelled {
		return ResultView{}, false
	}
	return ResultView{Result: j.Result, Error: j.Error}, true
}

// Cancel transitions a QUEUED job to CANCELLED. It never touches a
// RUNNING job — per §4.E, cancellation only applies to jobs that haven't
// started.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.findLocked(id)
	if j == nil || j.Status != StatusQueued {
		return false
	}
	j.Status = StatusCancelled
	now := time.Now()
	j.CompletedAt = &now
	q.recomputePositions()
	_ = q.persistLocked()
	return true
}

func (q *Queue) findLocked(id string) *Job {
	for _, j := range q.jobs {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// recomputePositions assigns dense 1-based positions to QUEUED jobs in
// enqueue order; non-queued jobs get position 0 (omitted from JSON).
func (q *Queue) recomputePositions() {
	sort.SliceStable(q.jobs, func(i, j int) bool {
		return q.jobs[i].CreatedAt.Before(q.jobs[j].CreatedAt)
	})
	pos := 1
	for _, j := range q.jobs {
		if j.Status == StatusQueued {
			j.Position = pos
			pos++
		} else {
			j.Position = 0
		}
	}
}

// applyRetention keeps every non-terminal job plus the max_completed_retained
// most recent terminal jobs by created_at, dropping older terminal jobs.
func (q *Queue) applyRetention() {
	if q.cfg.maxCompletedRetained <= 0 {
		return
	}
	sort.SliceStable(q.jobs, func(i, j int) bool {
		return q.jobs[i].CreatedAt.After(q.jobs[j].CreatedAt)
	})

	var kept []*Job
	terminalKept := 0
	for _, j := range q.jobs {
		if !j.terminal() {
			kept = append(kept, j)
			continue
		}
		if terminalKept < q.cfg.maxCompletedRetained {
			kept = append(kept, j)
			terminalKept++
		}
	}
	q.jobs = kept
}

func (q *Queue) persistLocked() error {
	out := make([]Job, len(q.jobs))
	for i, j := range q.jobs {
		out[i] = *j
	}
	return q.store.Save(out)
}

// workerLoop implements §4.E's single-worker cooperative loop: dequeue
// head, execute outside the lock, write the result back, idle when empty.
func (q *Queue) workerLoop(ctx context.Context, stop chan struct{}) {
	defer q.wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		job, g, options, ok := q.dequeueHead()
		if !ok {
			select {
			case <-stop:
				return
			case <-q.wake:
			case <-time.After(q.cfg.idleSleep):
			}
			continue
		}

		q.runJob(ctx, job, g, options)
	}
}

// dequeueHead pops the oldest QUEUED job, marks it RUNNING, and returns
// its translated graph and options alongside it. Returns ok=false if
// nothing is queued.
func (q *Queue) dequeueHead() (*Job, *graph.Graph, map[string]any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var head *Job
	for _, j := range q.jobs {
		if j.Status == StatusQueued {
			head = j
			break
		}
	}
	if head == nil {
		return nil, nil, nil, false
	}

	g, err := translateWorkflowDoc(head.WorkflowDoc)
	if err != nil {
		now := time.Now()
		head.Status = StatusFailed
		head.Error = fmt.Sprintf("translating workflow document: %v", err)
		head.CompletedAt = &now
		q.recomputePositions()
		_ = q.persistLocked()
		return nil, nil, nil, false
	}

	now := time.Now()
	head.Status = StatusRunning
	head.StartedAt = &now
	q.recomputePositions()
	_ = q.persistLocked()

	return head, g, head.Options, true
}

func translateWorkflowDoc(doc map[string]any) (*graph.Graph, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	callerDoc, err := graph.ParseCallerDocument(data)
	if err != nil {
		return nil, err
	}
	return graph.FromCallerDocument(callerDoc), nil
}

// runJob executes outside the queue lock per §4.E step 2, then writes the
// result back under the lock.
func (q *Queue) runJob(ctx context.Context, job *Job, g *graph.Graph, options map[string]any) {
	vars, err := contextVariables(options)
	if err != nil {
		q.completeJob(job, nil, fmt.Sprintf("building context variables: %v", err))
		return
	}

	engine := q.engineFactory()
	result := engine.Execute(ctx, g, vars)

	if !result.Success {
		q.completeJob(job, nil, result.Error)
		return
	}
	q.completeJob(job, result.FinalOutputs, "")
}

func (q *Queue) completeJob(job *Job, result map[string]any, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	job.CompletedAt = &now
	if errMsg != "" {
		job.Status = StatusFailed
		job.Error = errMsg
	} else {
		job.Status = StatusCompleted
		job.Result = result
	}
	q.applyRetention()
	q.recomputePositions()
	_ = q.persistLocked()
}
