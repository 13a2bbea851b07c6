package graph

import "time"

// Clock abstracts time.Now so engine and runner tests can inject a fake
// clock instead of racing wall-clock sleeps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	nodeTimeout time.Duration
	metrics     *Metrics
	clock       Clock
	registry    *Registry
	container   any
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		nodeTimeout: 30 * time.Second,
		clock:       realClock{},
		registry:    DefaultRegistry,
	}
}

// WithNodeTimeout bounds how long a single node's Execute may run before
// its context is cancelled. Zero disables the timeout.
func WithNodeTimeout(d time.Duration) Option {
	return func(c *engineConfig) { c.nodeTimeout = d }
}

// WithMetrics attaches a Metrics sink; nil (the default) disables metrics
// recording entirely.
func WithMetrics(m *Metrics) Option {
	return func(c *engineConfig) { c.metrics = m }
}

// WithClock overrides the Engine's time source. Intended for tests.
func WithClock(clk Clock) Option {
	return func(c *engineConfig) { c.clock = clk }
}

// WithRegistry overrides the node-type registry consulted at validation
// and build time. Defaults to DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(c *engineConfig) { c.registry = r }
}

// WithContainer sets the external-collaborator container exposed to node
// instances as Context.Container for every one-shot Execute call and every
// continuous workflow the runner starts against this Engine. nil (the
// default) means nodes that type-assert Context.Container get the
// zero value and must handle it.
func WithContainer(container any) Option {
	return func(c *engineConfig) { c.container = container }
}
