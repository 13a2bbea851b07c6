package emit

import "context"

// Emitter receives observability events from the engine and the runner.
// The job queue and the inference queue emit no events.
//
// Implementations must not block the caller for long: the engine calls
// Emit synchronously between node executions, so a slow emitter slows down
// every workflow. Buffer or sample internally if the backend is slow.
type Emitter interface {
	// Emit sends a single event. Must not panic; swallow and log backend
	// errors internally instead.
	Emit(event Event)

	// Flush blocks until any buffered events have been delivered, or ctx
	// is done. Safe to call multiple times.
	Flush(ctx context.Context) error
}
