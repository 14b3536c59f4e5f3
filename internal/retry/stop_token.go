package retry

// StopToken lets a scheduled or executed callback ask the Scheduler to stop
// retrying. It is the Go analogue of the original's RAII SchedulerStopToken:
// where C++ ran cleanup in the destructor, finish must be called explicitly
// once the callback returns — Schedule, ExecuteWithStop and the background
// retry loop already do this, callers never construct a StopToken themselves.
type StopToken struct {
	stopped bool
	cleanup func()
}

func newStopToken(cleanup func()) *StopToken {
	return &StopToken{cleanup: cleanup}
}

// RequestStop marks the token as stopped. The cleanup passed at construction
// runs once finish is called, not immediately.
func (t *StopToken) RequestStop() {
	t.stopped = true
}

// StopRequested reports whether RequestStop has been called on this token.
func (t *StopToken) StopRequested() bool {
	return t.stopped
}

func (t *StopToken) finish() {
	if t.stopped && t.cleanup != nil {
		t.cleanup()
	}
}
