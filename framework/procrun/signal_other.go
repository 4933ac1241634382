//go:build !unix

package procrun

import (
	"os"
	"os/exec"
)

type signalType int

const (
	sigTerminate signalType = 15
	sigKill      signalType = 9
)

// TerminatedStatus is the status of a process that exited because of Terminate. Without
// process signals, Terminate kills the process, which reports exit code 1.
var TerminatedStatus = ExitStatus{Code: 1} //nolint:gochecknoglobals

func setProcessGroup(cmd *exec.Cmd) {}

func signalGroup(p *os.Process, _ signalType) error {
	return p.Kill()
}

func statusOf(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	return ExitStatus{Code: state.ExitCode()}
}
