package executor

import "time"

// SetDeadline shortens the execution deadline of e for tests.
func SetDeadline(e *Executor, d time.Duration) {
	e.deadline = d
}
