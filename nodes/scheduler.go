package nodes

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/dshills/agentflow/graph"
)

const TypeScheduler graph.NodeType = "scheduler"

const (
	defaultMinSeconds = 5.0
	defaultMaxSeconds = 10.0
)

// Scheduler is an autonomous node that fires on a jittered interval
// between min_seconds and max_seconds, read from Metadata.
type Scheduler struct {
	graph.BaseNode

	mu           sync.Mutex
	minSeconds   float64
	maxSeconds   float64
	enabled      bool
	lastFireTime time.Time
	nextInterval time.Duration
	fireCount    int
}

func newScheduler(spec graph.NodeSpec) (graph.Node, error) {
	s := &Scheduler{
		BaseNode:   graph.NewBaseNode(spec),
		minSeconds: defaultMinSeconds,
		maxSeconds: defaultMaxSeconds,
		enabled:    true,
	}
	if v, ok := spec.Metadata["min_seconds"]; ok {
		s.minSeconds = toFloat(v, s.minSeconds)
	}
	if v, ok := spec.Metadata["max_seconds"]; ok {
		s.maxSeconds = toFloat(v, s.maxSeconds)
	}
	if v, ok := spec.Metadata["enabled"]; ok {
		s.enabled = toBool(v, s.enabled)
	}
	if s.minSeconds > s.maxSeconds {
		s.minSeconds, s.maxSeconds = s.maxSeconds, s.minSeconds
	}
	s.nextInterval = s.generateInterval()
	return s, nil
}

func (s *Scheduler) generateInterval() time.Duration {
	span := s.maxSeconds - s.minSeconds
	secs := s.minSeconds
	if span > 0 {
		secs += rand.Float64() * span
	}
	return time.Duration(secs * float64(time.Second))
}

// Execute arms the timer without firing. It runs when the graph goes
// through the one-shot engine path; the runner's continuous path never
// calls it, and OnTick arms the timer on its first call instead.
func (s *Scheduler) Execute(ctx context.Context, gctx *graph.Context) (graph.Outputs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastFireTime = time.Now()
	s.nextInterval = s.generateInterval()

	return graph.Outputs{
		"trigger":      false,
		"tick_count":   s.fireCount,
		"timestamp":    s.lastFireTime,
		"next_fire_in": s.nextInterval.Seconds(),
	}, nil
}

// OnTick implements graph.Ticker: fires once nextInterval has elapsed
// since the last fire, then rearms with a fresh jittered interval.
func (s *Scheduler) OnTick(ctx context.Context, gctx *graph.Context) (graph.Outputs, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return nil, false, nil
	}

	now := time.Now()
	if s.lastFireTime.IsZero() {
		s.lastFireTime = now
	}
	if now.Sub(s.lastFireTime) < s.nextInterval {
		return nil, false, nil
	}

	s.fireCount++
	s.lastFireTime = now
	s.nextInterval = s.generateInterval()

	return graph.Outputs{
		"trigger":      true,
		"tick_count":   s.fireCount,
		"timestamp":    now,
		"next_fire_in": s.nextInterval.Seconds(),
	}, true, nil
}

// ExecutionMode implements graph.ModeProvider.
func (s *Scheduler) ExecutionMode() graph.ExecutionMode { return graph.ModeContinuous }

// SetEnabled toggles whether OnTick ever fires.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func toFloat(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	default:
		return fallback
	}
}

func toBool(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func init() {
	graph.DefaultRegistry.Register(TypeScheduler, newScheduler)
}

var (
	_ graph.Node         = (*Scheduler)(nil)
	_ graph.Ticker       = (*Scheduler)(nil)
	_ graph.ModeProvider = (*Scheduler)(nil)
)
