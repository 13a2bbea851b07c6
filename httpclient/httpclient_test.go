package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultClient_GetAndPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	c := New()
	ctx := context.Background()

	getResp, err := c.Get(ctx, srv.URL, nil, time.Second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if getResp.StatusCode != 200 || string(getResp.Body) != "pong" {
		t.Fatalf("unexpected GET response: %+v", getResp)
	}

	postResp, err := c.Post(ctx, srv.URL, []byte("x"), nil, time.Second)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if postResp.StatusCode != 201 {
		t.Fatalf("unexpected POST status: %d", postResp.StatusCode)
	}
}

func TestDefaultClient_TimeoutSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New()
	_, err := c.Get(context.Background(), srv.URL, nil, time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestNewRateLimited_ThrottlesCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimited(10, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, srv.URL, nil, time.Second); err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 150*time.Millisecond {
		t.Fatalf("expected rate limiting to space out calls, elapsed %v", elapsed)
	}
}

func TestNewRateLimited_ContextCancelFailsWait(t *testing.T) {
	c := NewRateLimited(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// drain the single burst token first so the next call must wait.
	_ = c.limiter.Allow()

	if _, err := c.Get(ctx, "http://example.invalid", nil, time.Second); err == nil {
		t.Fatalf("expected error from cancelled rate limit wait")
	}
}
