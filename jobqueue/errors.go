package jobqueue

// AdmissionError reports that enqueue was refused by max_queue_size or
// max_jobs_per_user.
type AdmissionError struct {
	Reason string
}

func (e *AdmissionError) Error() string { return "job admission refused: " + e.Reason }

// MachineTag implements the taggedError contract.
func (e *AdmissionError) MachineTag() string { return "admission_limit" }
