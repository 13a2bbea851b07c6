// Package config loads the environment-driven settings a deployment's
// main package needs to wire model adapters, storage, and queue sizing,
// reading os.Getenv directly rather than pulling in a config-file
// library.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full set of deployment knobs read from the environment.
type Config struct {
	// ModelProvider selects which adapter NewModel constructs: "anthropic",
	// "openai", or "google".
	ModelProvider string
	ModelName     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	// StorageDriver selects the storage.Store backend: "memory", "sqlite",
	// or "mysql".
	StorageDriver string
	StorageDSN    string

	QuantumEndpoint string
	QuantumAPIKey   string

	// HTTPRateLimitRPS throttles the http_request node's outbound calls.
	// Zero (the default) disables rate limiting entirely.
	HTTPRateLimitRPS   float64
	HTTPRateLimitBurst int

	MaxQueueSize  int
	SubmitTimeout time.Duration

	TickInterval time.Duration
}

// Load reads Config from the process environment, applying the same
// defaults a bare invocation of each package's constructor would use.
func Load() (Config, error) {
	c := Config{
		ModelProvider:   getEnv("AGENTFLOW_MODEL_PROVIDER", "anthropic"),
		ModelName:       os.Getenv("AGENTFLOW_MODEL_NAME"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),

		StorageDriver: getEnv("AGENTFLOW_STORAGE_DRIVER", "memory"),
		StorageDSN:    os.Getenv("AGENTFLOW_STORAGE_DSN"),

		QuantumEndpoint: os.Getenv("AGENTFLOW_QUANTUM_ENDPOINT"),
		QuantumAPIKey:   os.Getenv("AGENTFLOW_QUANTUM_API_KEY"),

		HTTPRateLimitRPS:   getEnvFloat("AGENTFLOW_HTTP_RATE_LIMIT_RPS", 0),
		HTTPRateLimitBurst: getEnvInt("AGENTFLOW_HTTP_RATE_LIMIT_BURST", 1),

		MaxQueueSize:  getEnvInt("AGENTFLOW_MAX_QUEUE_SIZE", 16),
		SubmitTimeout: getEnvDuration("AGENTFLOW_SUBMIT_TIMEOUT", 30*time.Second),
		TickInterval:  getEnvDuration("AGENTFLOW_TICK_INTERVAL", 100*time.Millisecond),
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.ModelProvider {
	case "anthropic", "openai", "google":
	default:
		return fmt.Errorf("config: unknown model provider %q", c.ModelProvider)
	}
	switch c.StorageDriver {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("config: max queue size must be positive, got %d", c.MaxQueueSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
