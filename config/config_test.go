package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ModelProvider != "anthropic" {
		t.Fatalf("unexpected default provider: %q", c.ModelProvider)
	}
	if c.StorageDriver != "memory" {
		t.Fatalf("unexpected default storage driver: %q", c.StorageDriver)
	}
	if c.MaxQueueSize != 16 {
		t.Fatalf("unexpected default max queue size: %d", c.MaxQueueSize)
	}
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("AGENTFLOW_MODEL_PROVIDER", "bogus")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown model provider")
	}
}

func TestLoad_RejectsNonPositiveQueueSize(t *testing.T) {
	t.Setenv("AGENTFLOW_MAX_QUEUE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive queue size")
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("AGENTFLOW_MODEL_PROVIDER", "openai")
	t.Setenv("AGENTFLOW_STORAGE_DRIVER", "sqlite")
	t.Setenv("AGENTFLOW_STORAGE_DSN", "/tmp/agentflow.db")
	t.Setenv("AGENTFLOW_MAX_QUEUE_SIZE", "64")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ModelProvider != "openai" || c.StorageDriver != "sqlite" || c.StorageDSN != "/tmp/agentflow.db" || c.MaxQueueSize != 64 {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestLoad_ReadsHTTPRateLimit(t *testing.T) {
	t.Setenv("AGENTFLOW_HTTP_RATE_LIMIT_RPS", "5.5")
	t.Setenv("AGENTFLOW_HTTP_RATE_LIMIT_BURST", "10")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPRateLimitRPS != 5.5 || c.HTTPRateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit config: %+v", c)
	}
}

func TestLoad_DefaultsHTTPRateLimitDisabled(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPRateLimitRPS != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %v", c.HTTPRateLimitRPS)
	}
}
