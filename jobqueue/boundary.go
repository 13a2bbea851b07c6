package jobqueue

import (
	"errors"

	"github.com/dshills/agentflow/graph"
	"github.com/dshills/agentflow/inference"
	"github.com/dshills/agentflow/runner"
)

// boundaryError pairs an underlying error with the HTTP status an outer
// HTTP layer should report for it. No HTTP router is implemented here;
// this is the hook such a layer reads StatusHint off of.
type boundaryError struct {
	statusHint int
	tag        string
	cause      error
}

func (e *boundaryError) Error() string { return e.cause.Error() }

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *boundaryError) Unwrap() error { return e.cause }

// StatusHint returns the HTTP status code a boundary layer should report.
func (e *boundaryError) StatusHint() int { return e.statusHint }

// MachineTag implements the taggedError contract.
func (e *boundaryError) MachineTag() string { return e.tag }

// ToBoundaryError classifies err per the taxonomy: queue-full → 429,
// admission limit → 429, model-not-loaded / queue-not-initialized → 503,
// request timeout → 504, invalid graph or cycle → 400, anything else →
// 500. Returns nil for a nil err.
func ToBoundaryError(err error) error {
	if err == nil {
		return nil
	}

	var queueFull *inference.QueueFullError
	if errors.As(err, &queueFull) {
		return &boundaryError{statusHint: 429, tag: queueFull.MachineTag(), cause: err}
	}

	var notReady *inference.NotReadyError
	if errors.As(err, &notReady) {
		return &boundaryError{statusHint: 503, tag: notReady.MachineTag(), cause: err}
	}

	var jobAdmission *AdmissionError
	if errors.As(err, &jobAdmission) {
		return &boundaryError{statusHint: 429, tag: jobAdmission.MachineTag(), cause: err}
	}
	var runnerAdmission *runner.AdmissionError
	if errors.As(err, &runnerAdmission) {
		return &boundaryError{statusHint: 429, tag: runnerAdmission.MachineTag(), cause: err}
	}

	var timeout *inference.TimeoutError
	if errors.As(err, &timeout) {
		return &boundaryError{statusHint: 504, tag: timeout.MachineTag(), cause: err}
	}

	var validation *graph.ValidationError
	if errors.As(err, &validation) {
		return &boundaryError{statusHint: 400, tag: validation.MachineTag(), cause: err}
	}
	var cycle *graph.CycleError
	if errors.As(err, &cycle) {
		return &boundaryError{statusHint: 400, tag: cycle.MachineTag(), cause: err}
	}

	return &boundaryError{statusHint: 500, tag: "unknown", cause: err}
}
