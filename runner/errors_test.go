package runner

import (
	"errors"
	"testing"
)

func TestTickError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := &TickError{WorkflowID: "wf1", NodeID: "scheduler1", Cause: cause}

	if !errors.Is(err, cause) {
		t.Fatalf("expected TickError to unwrap to cause")
	}
	if err.MachineTag() != "tick_failure" {
		t.Fatalf("unexpected machine tag: %q", err.MachineTag())
	}
	if err.Error() == "" {
		t.Fatalf("expected non-empty error message")
	}
}

func TestAdmissionError_MachineTag(t *testing.T) {
	err := &AdmissionError{Reason: "max running workflows reached"}
	if err.MachineTag() != "admission_limit" {
		t.Fatalf("unexpected machine tag: %q", err.MachineTag())
	}
}
