package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus surface for engine execution, namespaced
// "agentflow_engine_". Attach via WithMetrics; nil-safe everywhere else in
// this package so an Engine built without metrics never has to nil-check.
type Metrics struct {
	executions   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	nodeFailures *prometheus.CounterVec
}

// NewMetrics registers the engine's metrics with reg (use
// prometheus.DefaultRegisterer for the global registry, or a fresh
// *prometheus.Registry per test to avoid collisions).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentflow",
			Subsystem: "engine",
			Name:      "executions_total",
			Help:      "Graph executions, labeled by outcome (success/failure).",
		}, []string{"graph_id", "outcome"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentflow",
			Subsystem: "engine",
			Name:      "node_duration_seconds",
			Help:      "Per-node Execute duration.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"graph_id", "node_type"}),
		nodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentflow",
			Subsystem: "engine",
			Name:      "node_failures_total",
			Help:      "Node executions that returned an error.",
		}, []string{"graph_id", "node_type"}),
	}
}

func (m *Metrics) observeNode(graphID string, nodeType NodeType, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.nodeDuration.WithLabelValues(graphID, string(nodeType)).Observe(d.Seconds())
	if failed {
		m.nodeFailures.WithLabelValues(graphID, string(nodeType)).Inc()
	}
}

func (m *Metrics) observeExecution(graphID string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.executions.WithLabelValues(graphID, outcome).Inc()
}
