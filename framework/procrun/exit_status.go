package procrun

import "fmt"

// ExitStatus is how a reaped process ended: either with an exit code, or killed by a signal.
type ExitStatus struct {
	Code   int
	Signal int // zero unless the process was killed by a signal
}

// Signaled reports whether the process was killed by a signal.
func (s ExitStatus) Signaled() bool { return s.Signal != 0 }

// ReturnCode folds the status into one integer, using the negative signal number for a
// process that was killed by a signal; "killed by SIGTERM" is -15.
func (s ExitStatus) ReturnCode() int {
	if s.Signaled() {
		return -s.Signal
	}
	return s.Code
}

func (s ExitStatus) String() string {
	if s.Signaled() {
		return fmt.Sprintf("killed by signal %d", s.Signal)
	}
	return fmt.Sprintf("exit status %d", s.Code)
}
