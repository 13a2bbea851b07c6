// Package httpclient provides a small best-effort HTTP client contract
// that tool.HTTPTool wraps, kept as a standalone dependency so it can be
// swapped or rate-limited independent of the tool.Tool wrapper around it.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Response is the outcome of one HTTP call.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Client performs HTTP requests with an explicit per-call timeout. Network
// failures are returned as errors, never swallowed, so callers can surface
// them as node errors per spec.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (Response, error)
	Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) (Response, error)
}

// DefaultClient is the standard net/http-backed Client implementation. An
// optional limiter throttles outbound calls so a single misbehaving
// external service can't be hammered by a tight tick loop.
type DefaultClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// New builds a DefaultClient with no rate limiting.
func New() *DefaultClient {
	return &DefaultClient{client: &http.Client{}}
}

// NewRateLimited builds a DefaultClient that waits for a token from a
// rate.Limiter allowing rps requests per second, up to burst at once,
// before every Get/Post.
func NewRateLimited(rps float64, burst int) *DefaultClient {
	return &DefaultClient{
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Get implements Client.
func (c *DefaultClient) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers, timeout)
}

// Post implements Client.
func (c *DefaultClient) Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) (Response, error) {
	return c.do(ctx, http.MethodPost, url, body, headers, timeout)
}

func (c *DefaultClient) do(ctx context.Context, method, url string, body []byte, headers map[string]string, timeout time.Duration) (Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Response{}, fmt.Errorf("building %s request: %w", method, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response body: %w", err)
	}

	return Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}
