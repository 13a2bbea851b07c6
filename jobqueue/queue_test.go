package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/agentflow/graph"
)

type echoNode struct{ graph.BaseNode }

func newEchoNode(spec graph.NodeSpec) (graph.Node, error) {
	return &echoNode{graph.NewBaseNode(spec)}, nil
}

func (n *echoNode) Execute(context.Context, *graph.Context) (graph.Outputs, error) {
	return graph.Outputs{"text": n.Inputs()["text"]}, nil
}

func testEngineFactory() EngineFactory {
	r := graph.NewRegistry()
	r.Register("echo", newEchoNode)
	r.MarkTerminal("echo")
	return func() *graph.Engine { return graph.New(nil, graph.WithRegistry(r)) }
}

func trivialDoc(text string) map[string]any {
	return map[string]any{
		"id":   "wf1",
		"name": "trivial",
		"nodes": []any{
			map[string]any{"id": "A", "type": "echo", "inputs": map[string]any{"text": text}},
		},
		"connections": []any{},
	}
}

func waitForTerminal(t *testing.T, q *Queue, id string) StatusView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		status, ok := q.GetStatus(id)
		if !ok {
			t.Fatalf("job %s vanished", id)
		}
		if status.Status == StatusCompleted || status.Status == StatusFailed {
			return status
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for job %s to finish, last status %+v", id, status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestQueue_EnqueueAndComplete(t *testing.T) {
	store := NewFileStore(t.TempDir() + "/jobs.json")
	q, err := New(store, testEngineFactory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q.Start(context.Background())
	defer q.Stop()

	job, err := q.Enqueue(trivialDoc("hello"), map[string]any{"user_id": "u1"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	status := waitForTerminal(t, q, job.ID)
	if status.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", status.Status)
	}

	result, ok := q.GetResult(job.ID)
	if !ok {
		t.Fatalf("expected a result")
	}
	if result.Result["text"] != "hello" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestQueue_MaxQueueSize(t *testing.T) {
	store := NewFileStore(t.TempDir() + "/jobs.json")
	q, err := New(store, testEngineFactory(), WithMaxQueueSize(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Don't start the worker, so the first job stays QUEUED.

	if _, err := q.Enqueue(trivialDoc("a"), nil); err != nil {
		t.Fatalf("first enqueue should succeed: %v", err)
	}
	if _, err := q.Enqueue(trivialDoc("b"), nil); err == nil {
		t.Fatalf("expected admission error on second enqueue")
	}
}

func TestQueue_MaxJobsPerUser(t *testing.T) {
	store := NewFileStore(t.TempDir() + "/jobs.json")
	q, err := New(store, testEngineFactory(), WithMaxJobsPerUser(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := q.Enqueue(trivialDoc("a"), map[string]any{"user_id": "u1"}); err != nil {
		t.Fatalf("first enqueue should succeed: %v", err)
	}
	if _, err := q.Enqueue(trivialDoc("b"), map[string]any{"user_id": "u1"}); err == nil {
		t.Fatalf("expected admission error for second job from same user")
	}
	if _, err := q.Enqueue(trivialDoc("c"), map[string]any{"user_id": "u2"}); err != nil {
		t.Fatalf("a different user should still be admitted: %v", err)
	}
}

func TestQueue_CancelQueuedJob(t *testing.T) {
	store := NewFileStore(t.TempDir() + "/jobs.json")
	q, err := New(store, testEngineFactory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	job, err := q.Enqueue(trivialDoc("a"), nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !q.Cancel(job.ID) {
		t.Fatalf("expected cancel to succeed on a queued job")
	}
	status, ok := q.GetStatus(job.ID)
	if !ok || status.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %+v", status)
	}
}

func TestQueue_RecoversRunningAsQueued(t *testing.T) {
	path := t.TempDir() + "/jobs.json"
	store := NewFileStore(path)

	now := time.Now()
	if err := store.Save([]Job{{
		ID:        "stuck",
		Status:    StatusRunning,
		CreatedAt: now,
		StartedAt: &now,
		WorkflowDoc: trivialDoc("x"),
	}}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	q, err := New(store, testEngineFactory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	status, ok := q.GetStatus("stuck")
	if !ok {
		t.Fatalf("expected recovered job to be present")
	}
	if status.Status != StatusQueued {
		t.Fatalf("expected recovered job demoted to queued, got %s", status.Status)
	}
}

func TestContextVariables_MergesExtraDataAndVariables(t *testing.T) {
	out, err := contextVariables(map[string]any{
		"client_id":  "c1",
		"user_query": "hi",
		"extra_data": map[string]any{"a": 1},
		"variables":  map[string]any{"a": 2, "b": 3},
	})
	if err != nil {
		t.Fatalf("contextVariables: %v", err)
	}
	if out["user_id"] != "c1" {
		t.Fatalf("expected client_id to map to user_id, got %v", out["user_id"])
	}
	if out["user_query"] != "hi" {
		t.Fatalf("expected user_query passthrough, got %v", out["user_query"])
	}
	if out["a"] != 2 {
		t.Fatalf("expected variables to win over extra_data on conflict, got %v", out["a"])
	}
	if out["b"] != 3 {
		t.Fatalf("expected variables-only key to survive, got %v", out["b"])
	}
}
