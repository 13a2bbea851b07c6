package runner

import "time"

// Option configures a Runner.
type Option func(*runnerConfig)

type runnerConfig struct {
	tickInterval        time.Duration
	maxRunning          int
	maxRunningPerCaller int
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{tickInterval: 100 * time.Millisecond}
}

// WithTickInterval overrides the default 100ms base tick interval.
func WithTickInterval(d time.Duration) Option {
	return func(c *runnerConfig) { c.tickInterval = d }
}

// WithMaxRunning caps the total number of concurrently running continuous
// workflows. Zero (the default) means unlimited.
func WithMaxRunning(n int) Option {
	return func(c *runnerConfig) { c.maxRunning = n }
}

// WithMaxRunningPerCaller caps running continuous workflows per caller id.
// Zero (the default) means unlimited.
func WithMaxRunningPerCaller(n int) Option {
	return func(c *runnerConfig) { c.maxRunningPerCaller = n }
}
