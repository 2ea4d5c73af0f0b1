package worker

import "errors"

// Sentinel errors reported per job.
var (
	ErrStopped     = errors.New("worker pool stopped")
	ErrNotStarted  = errors.New("worker pool not started")
	ErrJobPanicked = errors.New("job panicked")
)
