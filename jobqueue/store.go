package jobqueue

import "errors"

// ErrNotFound is returned by Store.Load when no document has ever been
// persisted.
var ErrNotFound = errors.New("jobqueue: not found")

// Store persists the entire job list as a single durable document,
// matching §4.E's "single on-disk document containing the job list".
// Both FileStore and SQLStore implement this, so Queue itself never knows
// which persistence backend it's using.
type Store interface {
	// Load returns every job ever persisted, in no particular order (the
	// queue reconstructs ordering from CreatedAt). FileStore returns
	// ErrNotFound if nothing has ever been saved; SQLStore returns zero
	// jobs instead.
	Load() ([]Job, error)

	// Save overwrites the full persisted job list.
	Save(jobs []Job) error
}
