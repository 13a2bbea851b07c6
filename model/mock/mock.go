// Package mock provides a test double for model.GenerationModel.
package mock

import (
	"context"
	"sync"

	"github.com/dshills/agentflow/model"
)

// Model is a test implementation of model.GenerationModel: configurable
// responses, call history, and error injection.
type Model struct {
	// Responses is the sequence returned by successive Generate calls.
	// Once exhausted, the last response repeats.
	Responses []model.Response

	// Err, if set, is returned instead of a response.
	Err error

	mu        sync.Mutex
	Calls     []model.Request
	callIndex int
}

// Generate implements model.GenerationModel.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if ctx.Err() != nil {
		return model.Response{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return model.Response{}, m.Err
	}
	if len(m.Responses) == 0 {
		return model.Response{Response: "", Source: "mock"}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount returns the number of Generate invocations so far.
func (m *Model) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
