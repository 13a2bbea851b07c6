// Package emit provides event emission and observability hooks for graph
// and workflow execution.
package emit

// Event is an observability event emitted during graph or workflow execution.
type Event struct {
	// WorkflowID identifies the workflow (graph run) that emitted this event.
	WorkflowID string

	// NodeID identifies which node emitted this event. Empty for
	// workflow-level events (start, complete, error).
	NodeID string

	// Msg is a short human-readable description, e.g. "node_start", "cycle_detected".
	Msg string

	// Meta carries structured detail specific to the event, e.g.
	// "duration_ms", "error", "tick", "execution_order".
	Meta map[string]interface{}
}
