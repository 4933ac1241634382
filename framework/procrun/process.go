// Package procrun starts and supervises the child processes of a trial: the server under
// test, the client driver, and any preprocessing commands.
//
// Every child runs in its own process group. Terminal interrupts are therefore delivered only
// to the harness, which is responsible for terminating its children, and termination reaches
// whatever the child itself spawned (for instance the program run by a timeout wrapper).
package procrun

import (
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultWaitDelay bounds how long Wait keeps copying output after a process has exited, in
// case a grandchild is still holding its output pipes open.
const DefaultWaitDelay = time.Second * 2

var (
	// ErrInterrupted is returned by Wait when the context was cancelled before the process
	// exited. The process is still running; the caller decides whether to terminate it.
	ErrInterrupted = errors.New("wait interrupted")

	// ErrWaitTimeout is returned by WaitTimeout when the process did not exit in time.
	ErrWaitTimeout = errors.New("process did not exit within the allotted time")
)

// SpawnError means that a command could not be launched at all.
type SpawnError struct {
	Path string
	Dir  string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Dir == "" {
		return "cannot launch " + e.Path + ": " + e.Err.Error()
	}
	return "cannot launch " + e.Path + " in " + e.Dir + ": " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Command describes one process to start. Stdout and Stderr may be nil, in which case the
// output is discarded. If they are *os.File values the child writes to them directly, so
// output reaches the file as it is produced even if the child is later killed.
type Command struct {
	Path   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	s := c.Path
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Runner starts processes. The zero value is ready to use.
type Runner struct {
	// WaitDelay overrides DefaultWaitDelay if non-zero.
	WaitDelay time.Duration
}

// Handle is a started process. It is owned by whoever called Start.
type Handle struct {
	cmd    *exec.Cmd
	done   chan struct{}
	status ExitStatus
	err    error

	terminateOnce sync.Once
	killOnce      sync.Once

	// signalLock is held while signalling, and while marking the process as exited before it
	// is reaped; once exited is set its process group ID may be reused
	signalLock sync.Mutex
	exited     bool
}

// Start launches the command and returns immediately. A background goroutine reaps the
// process as soon as it exits.
func (r *Runner) Start(c Command) (*Handle, error) {
	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: c.Path, Dir: c.Dir, Err: err}
	}

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	go h.reap()
	return h, nil
}

func (h *Handle) reap() {
	waitExited(h.cmd.Process.Pid)
	h.signalLock.Lock()
	h.exited = true
	h.signalLock.Unlock()

	err := h.cmd.Wait()
	h.status = statusOf(h.cmd.ProcessState)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		h.err = errors.WithMessage(err, "wait failed")
	}
	close(h.done)
}

// PID returns the operating system process ID.
func (h *Handle) PID() int { return h.cmd.Process.Pid }

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Exited reports whether the process has been reaped.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) (ExitStatus, error) {
	select {
	case <-h.done:
		return h.status, h.err
	case <-ctx.Done():
		return ExitStatus{}, errors.Wrap(ErrInterrupted, ctx.Err().Error())
	}
}

// WaitTimeout is like Wait, but gives up with ErrWaitTimeout after d.
func (h *Handle) WaitTimeout(ctx context.Context, d time.Duration) (ExitStatus, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.done:
		return h.status, h.err
	case <-timer.C:
		return ExitStatus{}, ErrWaitTimeout
	case <-ctx.Done():
		return ExitStatus{}, errors.Wrap(ErrInterrupted, ctx.Err().Error())
	}
}

// Terminate asks the process group to exit with SIGTERM. It does not wait. Only the first
// call has any effect, and calling it after the process has exited does nothing.
func (h *Handle) Terminate() {
	h.terminateOnce.Do(func() { h.signal(sigTerminate) })
}

// Kill forcibly stops the process group. Like Terminate, it is idempotent.
func (h *Handle) Kill() {
	h.killOnce.Do(func() { h.signal(sigKill) })
}

func (h *Handle) signal(sig signalType) {
	h.signalLock.Lock()
	defer h.signalLock.Unlock()
	if h.exited {
		return
	}
	_ = signalGroup(h.cmd.Process, sig)
}
