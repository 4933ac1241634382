package procrun

import (
	"golang.org/x/sys/unix"
)

// waitExited blocks until the process has exited but leaves it unreaped, so its pid and
// process group ID cannot be reused until Wait is called.
func waitExited(pid int) {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if err != unix.EINTR {
			return
		}
	}
}
