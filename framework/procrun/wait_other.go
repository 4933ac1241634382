//go:build !linux

package procrun

// waitExited returns immediately where waiting without reaping is not available; there a
// signal sent just as the process is reaped can still reach a reused process group ID.
func waitExited(int) {}
