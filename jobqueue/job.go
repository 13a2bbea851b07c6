// Package jobqueue is a single-worker, durable FIFO queue that runs
// caller-submitted workflow documents against an injected engine, one at a
// time, in strict enqueue order.
package jobqueue

import "time"

// Status is a Job's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is one durable unit of work: a caller-facing workflow document plus
// the options bag it was submitted with, and the status/result the worker
// records as it progresses.
type Job struct {
	ID          string         `json:"id"`
	WorkflowDoc map[string]any `json:"workflow_doc"`
	Options     map[string]any `json:"options"`
	CallerID    string         `json:"caller_id"`

	Status      Status     `json:"status"`
	Position    int        `json:"position,omitempty"` // only meaningful while QUEUED
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Result map[string]any `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// terminal reports whether the job has left the queue for good.
func (j *Job) terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// StatusView is the observer-facing projection returned by GetStatus: a
// Job stripped of its workflow document and full result, since pollers
// only need progress, not the payload.
type StatusView struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	Position    int        `json:"position,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	HasResult   bool       `json:"has_result"`
}

func (j *Job) statusView() StatusView {
	return StatusView{
		ID:          j.ID,
		Status:      j.Status,
		Position:    j.Position,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		HasResult:   j.Status == StatusCompleted || j.Status == StatusFailed,
	}
}

// ResultView is what GetResult returns for a COMPLETED or FAILED job.
type ResultView struct {
	Result map[string]any `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
