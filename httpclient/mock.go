package httpclient

import (
	"context"
	"sync"
	"time"
)

// MockClient is a test double for Client.
type MockClient struct {
	Responses []Response
	Err       error

	Calls []MockCall

	mu        sync.Mutex
	callIndex int
}

// MockCall records one Get/Post invocation.
type MockCall struct {
	Method string
	URL    string
	Body   []byte
}

// Get implements Client.
func (m *MockClient) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (Response, error) {
	return m.record(ctx, "GET", url, nil)
}

// Post implements Client.
func (m *MockClient) Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) (Response, error) {
	return m.record(ctx, "POST", url, body)
}

func (m *MockClient) record(ctx context.Context, method, url string, body []byte) (Response, error) {
	if ctx.Err() != nil {
		return Response{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: method, URL: url, Body: body})

	if m.Err != nil {
		return Response{}, m.Err
	}
	if len(m.Responses) == 0 {
		return Response{StatusCode: 200}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount returns the number of Get/Post invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
