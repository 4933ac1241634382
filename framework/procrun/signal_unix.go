//go:build unix

package procrun

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

type signalType = unix.Signal

const (
	sigTerminate = unix.SIGTERM
	sigKill      = unix.SIGKILL
)

// TerminatedStatus is the status of a process that exited because of Terminate.
var TerminatedStatus = ExitStatus{Code: -1, Signal: int(unix.SIGTERM)} //nolint:gochecknoglobals

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(p *os.Process, sig unix.Signal) error {
	err := unix.Kill(-p.Pid, sig)
	if err == unix.ESRCH {
		// the group leader may have exited while other members are gone too
		return nil
	}
	if err != nil {
		return p.Signal(sig)
	}
	return nil
}

func statusOf(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: int(ws.Signal())}
	}
	return ExitStatus{Code: state.ExitCode()}
}
