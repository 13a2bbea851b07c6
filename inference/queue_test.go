package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/agentflow/model"
	"github.com/dshills/agentflow/model/mock"
)

func TestQueue_SubmitAndComplete(t *testing.T) {
	m := &mock.Model{Responses: []model.Response{{Response: "hi"}}}
	q := New(m, 4)
	q.Start()
	defer q.Stop()

	resp, err := q.Submit(context.Background(), model.Request{Query: "hello"}, time.Second)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Response != "hi" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestQueue_FullRejectsImmediately(t *testing.T) {
	block := make(chan struct{})
	m := &blockingModel{block: block}
	q := New(m, 1)
	q.Start()
	defer func() {
		close(block)
		q.Stop()
	}()

	// First submit occupies the single worker slot inside the model call.
	go func() { _, _ = q.Submit(context.Background(), model.Request{}, 2*time.Second) }()
	time.Sleep(20 * time.Millisecond)

	// Second submit fills the one-slot buffered channel.
	go func() { _, _ = q.Submit(context.Background(), model.Request{}, 2*time.Second) }()
	time.Sleep(20 * time.Millisecond)

	_, err := q.Submit(context.Background(), model.Request{}, 2*time.Second)
	var full *QueueFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected QueueFullError, got %v", err)
	}
}

func TestQueue_TimeoutBeforeDispatch(t *testing.T) {
	block := make(chan struct{})
	m := &blockingModel{block: block}
	q := New(m, 4)
	q.Start()
	defer func() {
		close(block)
		q.Stop()
	}()

	// Occupy the worker with a slow call.
	go func() { _, _ = q.Submit(context.Background(), model.Request{}, 2*time.Second) }()
	time.Sleep(20 * time.Millisecond)

	_, err := q.Submit(context.Background(), model.Request{}, 10*time.Millisecond)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestQueue_Stats(t *testing.T) {
	m := &mock.Model{Responses: []model.Response{{Response: "ok"}}}
	q := New(m, 4)
	q.Start()
	defer q.Stop()

	if _, err := q.Submit(context.Background(), model.Request{}, time.Second); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stats := q.Stats()
	if stats.PendingCount != 0 {
		t.Fatalf("expected no pending after completion, got %+v", stats)
	}
}

func TestQueue_SubmitBeforeStartReturnsNotReady(t *testing.T) {
	m := &mock.Model{Responses: []model.Response{{Response: "hi"}}}
	q := New(m, 4)

	_, err := q.Submit(context.Background(), model.Request{Query: "hello"}, time.Second)
	var notReady *NotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
}

// Requests submitted back-to-back must start Generate in the order they
// were enqueued: dispatch must not hand each dequeued entry to its own
// goroutine to race for the in-flight slot, since the Go scheduler gives
// no ordering guarantee between when two goroutines begin running.
func TestQueue_DispatchStartsGenerateInEnqueueOrder(t *testing.T) {
	var mu sync.Mutex
	var startOrder []string
	m := &orderRecordingModel{order: &startOrder, mu: &mu, delay: 20 * time.Millisecond}
	q := New(m, 4)
	q.Start()
	defer q.Stop()

	var wg sync.WaitGroup
	for _, query := range []string{"R1", "R2", "R3"} {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			_, _ = q.Submit(context.Background(), model.Request{Query: query}, 2*time.Second)
		}(query)
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"R1", "R2", "R3"}
	if len(startOrder) != len(want) {
		t.Fatalf("expected 3 Generate calls, got %v", startOrder)
	}
	for i, q := range want {
		if startOrder[i] != q {
			t.Fatalf("expected Generate start order %v, got %v", want, startOrder)
		}
	}
}

type orderRecordingModel struct {
	mu    *sync.Mutex
	order *[]string
	delay time.Duration
}

func (m *orderRecordingModel) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	m.mu.Lock()
	*m.order = append(*m.order, req.Query)
	m.mu.Unlock()
	time.Sleep(m.delay)
	return model.Response{Response: req.Query}, nil
}

type blockingModel struct {
	block chan struct{}
}

func (b *blockingModel) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	select {
	case <-b.block:
		return model.Response{}, nil
	case <-ctx.Done():
		return model.Response{}, ctx.Err()
	}
}
