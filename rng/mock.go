package rng

import (
	"context"
	"sync"
)

// MockSource is a deterministic test double for QuantumSource.
type MockSource struct {
	Samples []Sample
	Err     error

	Calls []MockCall

	mu        sync.Mutex
	callIndex int
}

// MockCall records one GetQuantumRandom invocation.
type MockCall struct {
	NumQubits int
	Shots     int
}

// GetQuantumRandom implements QuantumSource.
func (m *MockSource) GetQuantumRandom(ctx context.Context, numQubits, shots int) (Sample, error) {
	if ctx.Err() != nil {
		return Sample{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{NumQubits: numQubits, Shots: shots})

	if m.Err != nil {
		return Sample{}, m.Err
	}
	if len(m.Samples) == 0 {
		return Sample{NumQubits: numQubits, Shots: shots, Source: "mock"}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Samples) {
		idx = len(m.Samples) - 1
	} else {
		m.callIndex++
	}
	return m.Samples[idx], nil
}

// CallCount returns the number of GetQuantumRandom invocations.
func (m *MockSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
