package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/agentflow/graph"
)

func TestScheduler_ExecuteArmsWithoutFiring(t *testing.T) {
	n, err := newScheduler(graph.NodeSpec{
		ID: "s1",
		Metadata: map[string]any{
			"min_seconds": 0.01,
			"max_seconds": 0.02,
		},
	})
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}

	out, err := n.(graph.Node).Execute(context.Background(), graph.NewContext(nil, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["trigger"] != false {
		t.Fatalf("expected execute to arm without firing, got %+v", out)
	}
}

func TestScheduler_OnTickFiresAfterInterval(t *testing.T) {
	n, err := newScheduler(graph.NodeSpec{
		ID: "s2",
		Metadata: map[string]any{
			"min_seconds": 0.01,
			"max_seconds": 0.01,
		},
	})
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}
	sched := n.(*Scheduler)

	if _, err := sched.Execute(context.Background(), graph.NewContext(nil, nil)); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	time.Sleep(15 * time.Millisecond)

	out, ok, err := sched.OnTick(context.Background(), graph.NewContext(nil, nil))
	if err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	if !ok {
		t.Fatalf("expected scheduler to fire after interval elapsed")
	}
	if out["tick_count"] != 1 {
		t.Fatalf("unexpected tick_count: %+v", out)
	}
}

func TestScheduler_DisabledNeverFires(t *testing.T) {
	n, err := newScheduler(graph.NodeSpec{
		ID: "s3",
		Metadata: map[string]any{
			"min_seconds": 0.001,
			"max_seconds": 0.001,
			"enabled":     false,
		},
	})
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}
	sched := n.(*Scheduler)

	time.Sleep(5 * time.Millisecond)
	_, ok, err := sched.OnTick(context.Background(), graph.NewContext(nil, nil))
	if err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	if ok {
		t.Fatalf("expected disabled scheduler not to fire")
	}
}

func TestScheduler_MinMaxSwappedWhenInverted(t *testing.T) {
	n, err := newScheduler(graph.NodeSpec{
		ID: "s4",
		Metadata: map[string]any{
			"min_seconds": 10.0,
			"max_seconds": 1.0,
		},
	})
	if err != nil {
		t.Fatalf("newScheduler: %v", err)
	}
	sched := n.(*Scheduler)
	if sched.minSeconds != 1.0 || sched.maxSeconds != 10.0 {
		t.Fatalf("expected min/max swapped, got min=%v max=%v", sched.minSeconds, sched.maxSeconds)
	}
}
