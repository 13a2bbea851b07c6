package nodes

import (
	"context"
	"fmt"

	"github.com/dshills/agentflow/rng"
)

// quantumTool adapts rng.QuantumSource to tool.Tool, so QuantumRandom
// exposes its side effect the same uniform way HTTPRequest does.
type quantumTool struct {
	src rng.QuantumSource
}

func (q *quantumTool) Name() string { return "quantum_random" }

func (q *quantumTool) Call(ctx context.Context, input map[string]any) (map[string]any, error) {
	numQubits := int(toFloat(input["num_qubits"], defaultNumQubits))
	shots := int(toFloat(input["shots"], defaultShots))

	sample, err := q.src.GetQuantumRandom(ctx, numQubits, shots)
	if err != nil {
		return nil, fmt.Errorf("quantum_random: %w", err)
	}

	return map[string]any{
		"value":        sample.Value,
		"measurements": sample.Measurements,
		"num_qubits":   sample.NumQubits,
		"shots":        sample.Shots,
		"source":       sample.Source,
		"backend":      sample.Backend,
	}, nil
}
