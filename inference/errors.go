package inference

// QueueFullError is returned by Submit when max_queue_size pending
// requests are already waiting for the worker.
type QueueFullError struct{}

func (e *QueueFullError) Error() string { return "inference: queue full" }

// MachineTag implements the taggedError contract.
func (e *QueueFullError) MachineTag() string { return "queue_full" }

// TimeoutError is returned by Submit when the caller's timeout (or
// context) ends before the worker has produced a response, whether the
// request was still waiting in the queue or already inside Generate.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return "inference: request timed out" }

// MachineTag implements the taggedError contract.
func (e *TimeoutError) MachineTag() string { return "timeout" }

// NotReadyError is returned by Submit when the queue's worker goroutine
// has not been started yet.
type NotReadyError struct{}

func (e *NotReadyError) Error() string { return "inference: queue not started" }

// MachineTag implements the taggedError contract.
func (e *NotReadyError) MachineTag() string { return "not_ready" }
