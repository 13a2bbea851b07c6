// Package inference is a single-worker async queue serializing calls into
// a shared model.GenerationModel, so graph nodes calling Generate never
// race on model state.
package inference

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dshills/agentflow/model"
)

type entry struct {
	req      model.Request
	ctx      context.Context
	resultCh chan outcome
}

type outcome struct {
	resp model.Response
	err  error
}

// Queue is an in-process FIFO in front of one GenerationModel.
type Queue struct {
	model model.GenerationModel

	queueCh chan *entry
	sem     *semaphore.Weighted

	pending    int32
	processing int32
	started    int32

	closeOnce sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// Stats is the backpressure surface exposed for liveness checks.
type Stats struct {
	PendingCount int
	IsProcessing bool
}

// New builds a Queue with capacity maxQueueSize (the number of requests
// allowed to wait for the worker at once) in front of m.
func New(m model.GenerationModel, maxQueueSize int) *Queue {
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}
	return &Queue{
		model:   m,
		queueCh: make(chan *entry, maxQueueSize),
		sem:     semaphore.NewWeighted(1),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the single worker goroutine. Safe to call once.
func (q *Queue) Start() {
	atomic.StoreInt32(&q.started, 1)
	q.wg.Add(1)
	go q.workerLoop()
}

// Stop signals the worker to exit, then waits for it. Entries still
// waiting in the queue are not run; their callers get a TimeoutError once
// their own timeout or context ends.
func (q *Queue) Stop() {
	q.closeOnce.Do(func() { close(q.stopCh) })
	q.wg.Wait()
}

// Submit enqueues req and blocks until the worker produces a response,
// timeout elapses, or the queue is full (rejected immediately, no blocking
// admission).
func (q *Queue) Submit(ctx context.Context, req model.Request, timeout time.Duration) (model.Response, error) {
	if atomic.LoadInt32(&q.started) == 0 {
		return model.Response{}, &NotReadyError{}
	}

	entryCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		entryCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e := &entry{req: req, ctx: entryCtx, resultCh: make(chan outcome, 1)}

	select {
	case q.queueCh <- e:
		atomic.AddInt32(&q.pending, 1)
	default:
		return model.Response{}, &QueueFullError{}
	}

	select {
	case out := <-e.resultCh:
		return out.resp, out.err
	case <-entryCtx.Done():
		return model.Response{}, &TimeoutError{}
	}
}

// Stats reports the current backpressure surface.
func (q *Queue) Stats() Stats {
	return Stats{
		PendingCount: int(atomic.LoadInt32(&q.pending)),
		IsProcessing: atomic.LoadInt32(&q.processing) == 1,
	}
}

func (q *Queue) workerLoop() {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopCh:
			return
		case e := <-q.queueCh:
			atomic.AddInt32(&q.pending, -1)
			q.dispatch(e)
		}
	}
}

// dispatch acquires the single in-flight slot and runs the model call
// synchronously on the worker loop's own goroutine, so requests start
// Generate in exactly the FIFO order they were dequeued in — spawning a
// per-entry goroutine here would let two dequeued entries race to
// acquire the semaphore in whichever order the Go scheduler happens to
// run them, not the order they were queued.
func (q *Queue) dispatch(e *entry) {
	if e.ctx.Err() != nil {
		return
	}

	if err := q.sem.Acquire(e.ctx, 1); err != nil {
		select {
		case e.resultCh <- outcome{err: &TimeoutError{}}:
		default:
		}
		return
	}
	defer q.sem.Release(1)

	atomic.StoreInt32(&q.processing, 1)
	// The queue has no context-window size, so max_tokens gets only its
	// lower bound here.
	resp, err := q.model.Generate(e.ctx, model.ClampRequest(e.req, 0))
	atomic.StoreInt32(&q.processing, 0)

	select {
	case e.resultCh <- outcome{resp: resp, err: err}:
	default:
	}
}
