package runner

import "fmt"

// AdmissionError reports that start_workflow was refused by a running- or
// per-caller workflow cap.
type AdmissionError struct {
	Reason string
}

func (e *AdmissionError) Error() string {
	return "workflow admission refused: " + e.Reason
}

// MachineTag implements the taggedError contract.
func (e *AdmissionError) MachineTag() string { return "admission_limit" }

// TickError reports that a tick failed: either a node's OnTick raised, or
// the derived sub-graph execution it triggered did. Per §4.D this never
// kills the workflow — it is handed to the registered OnError callback and
// the workflow stays RUNNING.
type TickError struct {
	WorkflowID string
	NodeID     string
	Cause      error
}

func (e *TickError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("workflow %s tick failed at node %s: %v", e.WorkflowID, e.NodeID, e.Cause)
	}
	return fmt.Sprintf("workflow %s tick failed: %v", e.WorkflowID, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *TickError) Unwrap() error { return e.Cause }

// MachineTag implements the taggedError contract.
func (e *TickError) MachineTag() string { return "tick_failure" }
