package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/rng"
)

func TestQuantumRandom_DelegatesToSource(t *testing.T) {
	src := &rng.MockSource{Samples: []rng.Sample{{Value: 0.42, NumQubits: 4, Shots: 100, Source: "mock"}}}
	c := &Container{Quantum: NewQuantumTool(src)}

	n, err := newQuantumRandom(graph.NodeSpec{ID: "q1", Inputs: map[string]any{"num_qubits": float64(4), "shots": float64(100)}})
	if err != nil {
		t.Fatalf("newQuantumRandom: %v", err)
	}

	out, err := n.(graph.Node).Execute(context.Background(), graph.NewContext(c, nil))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out["value"] != 0.42 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if src.CallCount() != 1 {
		t.Fatalf("expected one source call, got %d", src.CallCount())
	}
}

func TestQuantumRandom_PropagatesSourceError(t *testing.T) {
	src := &rng.MockSource{Err: errors.New("quantum service unavailable")}
	c := &Container{Quantum: NewQuantumTool(src)}

	n, err := newQuantumRandom(graph.NodeSpec{ID: "q2"})
	if err != nil {
		t.Fatalf("newQuantumRandom: %v", err)
	}

	_, err = n.(graph.Node).Execute(context.Background(), graph.NewContext(c, nil))
	if err == nil {
		t.Fatalf("expected error from source")
	}
}
