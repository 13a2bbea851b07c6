package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/agentflow/httpclient"
)

const defaultHTTPToolTimeout = 10 * time.Second

// HTTPTool makes GET/POST requests through an httpclient.Client and
// returns status, headers, and body as the uniform Tool output shape.
type HTTPTool struct {
	client httpclient.Client
}

// NewHTTPTool builds an HTTPTool backed by httpclient.New().
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: httpclient.New()}
}

// NewHTTPToolWithClient builds an HTTPTool against a caller-supplied
// httpclient.Client, for tests or alternate transports.
func NewHTTPToolWithClient(c httpclient.Client) *HTTPTool {
	return &HTTPTool{client: c}
}

// Name implements Tool.
func (h *HTTPTool) Name() string { return "http_request" }

// Call implements Tool.
func (h *HTTPTool) Call(ctx context.Context, input map[string]any) (map[string]any, error) {
	urlStr, ok := input["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := "GET"
	if m, ok := input["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	headers := map[string]string{}
	if raw, ok := input["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	timeout := defaultHTTPToolTimeout
	if secs, ok := input["timeout_seconds"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	var body []byte
	if bodyStr, ok := input["body"].(string); ok && bodyStr != "" {
		body = []byte(bodyStr)
	}

	var resp httpclient.Response
	var err error
	if method == "POST" {
		resp, err = h.client.Post(ctx, urlStr, body, headers, timeout)
	} else {
		resp, err = h.client.Get(ctx, urlStr, headers, timeout)
	}
	if err != nil {
		return nil, err
	}

	respHeaders := make(map[string]any, len(resp.Headers))
	for key, values := range resp.Headers {
		if len(values) == 1 {
			respHeaders[key] = values[0]
		} else {
			respHeaders[key] = values
		}
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(resp.Body),
	}, nil
}
