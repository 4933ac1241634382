// Package trial runs single trials: it starts the server under test, drives it with the
// client for one sequence number, and classifies what happened.
package trial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivy-tools/trial-harness/framework"
	"github.com/ivy-tools/trial-harness/framework/artifacts"
	"github.com/ivy-tools/trial-harness/framework/procrun"
	"github.com/ivy-tools/trial-harness/testcase"
)

// DefaultGracePeriod is how long the server may take to exit after being terminated.
const DefaultGracePeriod = time.Second * 5

// ErrServerNotReaped means the server ignored termination for the whole grace period. It is
// a harness-level error rather than a trial failure, because the next trial would find the
// server's ports still in use.
var ErrServerNotReaped = errors.New("server did not exit after termination")

// Server describes how to launch the server under test.
type Server struct {
	Path string
	Args []string
	Dir  string
}

// Executor runs trials one at a time.
type Executor struct {
	Runner  procrun.Runner
	Server  Server
	Wrapper testcase.TimeoutWrapper

	// GracePeriod overrides DefaultGracePeriod if non-zero.
	GracePeriod time.Duration
}

// Run executes one trial, writing its output to the bundle. The returned error is non-nil only
// for harness-level problems, such as a program that cannot be launched; every outcome of the
// trial itself, including interruption through ctx, is reported in the Result.
//
// Once the server has been started it is always terminated and reaped before Run returns.
func (e *Executor) Run(
	ctx context.Context,
	tr Trial,
	bundle *artifacts.Bundle,
	logger framework.Logger,
) (Result, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	result := Result{Trial: tr, Start: time.Now()}
	outcome, err := e.run(ctx, tr, bundle, logger)
	result.Outcome = outcome
	result.Duration = time.Since(result.Start)
	return result, err
}

func (e *Executor) run(
	ctx context.Context,
	tr Trial,
	bundle *artifacts.Bundle,
	logger framework.Logger,
) (outcome Outcome, err error) {
	if outcome, done, err := e.preprocess(ctx, tr.Test, bundle, logger); done || err != nil {
		return outcome, err
	}

	if ctx.Err() != nil {
		return InterruptedOutcome(), nil
	}

	serverCmd := procrun.Command{
		Path:   e.Server.Path,
		Args:   e.Server.Args,
		Dir:    e.Server.Dir,
		Stdout: bundle.Stdout,
		Stderr: bundle.Stderr,
	}
	logger.Printf("starting server: %s", serverCmd)
	server, err := e.Runner.Start(serverCmd)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		outcome, err = e.releaseServer(server, bundle, logger, outcome, err)
	}()

	return e.runClient(ctx, tr, bundle, logger)
}

// preprocess runs the test's preprocessing commands. If done is true, the trial is over
// without the server ever having been started.
func (e *Executor) preprocess(
	ctx context.Context,
	test testcase.TestCase,
	bundle *artifacts.Bundle,
	logger framework.Logger,
) (outcome Outcome, done bool, err error) {
	for _, argv := range test.PreprocessCommands() {
		if len(argv) == 0 {
			continue
		}
		cmd := procrun.Command{
			Path:   argv[0],
			Args:   argv[1:],
			Dir:    test.Dir(),
			Stdout: bundle.Events,
			Stderr: bundle.Events,
		}
		logger.Printf("executing: %s", cmd)
		h, err := e.Runner.Start(cmd)
		if err != nil {
			return Outcome{}, true, err
		}
		status, err := h.Wait(ctx)
		if err != nil {
			if errors.Is(err, procrun.ErrInterrupted) {
				e.stop(h, logger)
				return InterruptedOutcome(), true, nil
			}
			return Outcome{}, true, err
		}
		if status.ReturnCode() != 0 {
			logger.Printf("preprocessing step failed: %s", status)
			if err := bundle.Mark("preprocess_return_code(%d)", status.ReturnCode()); err != nil {
				return Outcome{}, true, err
			}
			outcome := ClientExitOutcome(status.ReturnCode())
			outcome.Step = cmd.String()
			return outcome, true, nil
		}
	}
	return Outcome{}, false, nil
}

func (e *Executor) runClient(
	ctx context.Context,
	tr Trial,
	bundle *artifacts.Bundle,
	logger framework.Logger,
) (Outcome, error) {
	command, err := tr.Test.ClientCommand(tr.Sequence, e.Wrapper)
	if err != nil {
		return Outcome{}, err
	}
	logger.Println(command.String())
	client, err := e.Runner.Start(procrun.Command{
		Path:   command.Path(),
		Args:   command.Args(),
		Dir:    tr.Test.Dir(),
		Stdout: bundle.Events,
		Stderr: bundle.Events,
	})
	if err != nil {
		return Outcome{}, err
	}

	status, err := client.Wait(ctx)
	if err != nil {
		if errors.Is(err, procrun.ErrInterrupted) {
			logger.Println("interrupted, stopping client")
			e.stop(client, logger)
			return InterruptedOutcome(), nil
		}
		return Outcome{}, err
	}

	outcome := classifyClient(status)
	switch outcome.Kind {
	case ClientTimeout:
		logger.Println("timeout")
		err = bundle.Mark("timeout")
	case ClientNonZeroExit:
		logger.Printf("client return code: %d", outcome.Code)
		err = bundle.Mark("client_return_code(%d)", outcome.Code)
	}
	return outcome, err
}

// releaseServer terminates and reaps the server, then lets a server crash override an outcome
// that was not already an interruption.
func (e *Executor) releaseServer(
	server *procrun.Handle,
	bundle *artifacts.Bundle,
	logger framework.Logger,
	outcome Outcome,
	err error,
) (Outcome, error) {
	server.Terminate()
	status, waitErr := server.WaitTimeout(context.Background(), e.gracePeriod())
	if waitErr != nil {
		server.Kill()
		<-server.Done()
		return outcome, fmt.Errorf("%w (pid %d): %s", ErrServerNotReaped, server.PID(), waitErr)
	}
	if err != nil || outcome.Kind == Interrupted {
		return outcome, err
	}
	if status.ReturnCode() != procrun.TerminatedStatus.ReturnCode() {
		logger.Printf("server return code: %d", status.ReturnCode())
		if markErr := bundle.Mark("server_return_code(%d)", status.ReturnCode()); markErr != nil {
			return outcome, markErr
		}
		return ServerExitOutcome(status.ReturnCode()), nil
	}
	return outcome, nil
}

// stop terminates a process that is being abandoned, escalating to a kill if it does not exit
// within the grace period.
func (e *Executor) stop(h *procrun.Handle, logger framework.Logger) {
	h.Terminate()
	if _, err := h.WaitTimeout(context.Background(), e.gracePeriod()); err != nil {
		logger.Printf("process %d ignored termination, killing it", h.PID())
		h.Kill()
		<-h.Done()
	}
}

func (e *Executor) gracePeriod() time.Duration {
	if e.GracePeriod > 0 {
		return e.GracePeriod
	}
	return DefaultGracePeriod
}

func classifyClient(status procrun.ExitStatus) Outcome {
	switch code := status.ReturnCode(); code {
	case 0:
		return PassedOutcome()
	case testcase.TimeoutExitCode:
		return TimeoutOutcome()
	default:
		return ClientExitOutcome(code)
	}
}
