// Package suite runs every trial of every configured test, one trial at a time.
package suite

import (
	"context"
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/ivy-tools/trial-harness/framework"
	"github.com/ivy-tools/trial-harness/framework/report"
	"github.com/ivy-tools/trial-harness/testcase"
	"github.com/ivy-tools/trial-harness/trial"
)

// Loop is the harness loop. Trials are never run in parallel: each one needs the server's
// network ports to itself.
type Loop struct {
	Executor    *trial.Executor
	Sink        *Sink
	TrialLogger report.TrialLogger
	Filter      report.Filter
	Loggers     ldlog.Loggers

	// DebugLogger, if set, also receives every trial's debug output as it is produced.
	DebugLogger framework.Logger
}

// RunAll runs sequences 0 through iters-1 of each test. Cancelling ctx stops the run: the
// trial in progress is abandoned (its server is still terminated), no further trials start,
// and the returned Results are marked as interrupted.
//
// A non-nil error means the harness itself failed, for instance because a program could not be
// launched; the Results then contain whatever completed before the failure.
func (l *Loop) RunAll(ctx context.Context, tests []testcase.TestCase, iters int) (report.Results, error) {
	logger := l.TrialLogger
	if logger == nil {
		logger = report.NullTrialLogger()
	}
	var results report.Results

	for _, test := range tests {
		if ctx.Err() != nil {
			return results.MarkInterrupted(), nil
		}
		if l.Filter != nil && !l.Filter(test.Name()) {
			logger.TestSkipped(test.Name(), "excluded by filter parameters")
			continue
		}
		l.Loggers.Infof("Running %d trials of %s", iters, test.ID())

		for seq := 0; seq < iters; seq++ {
			if ctx.Err() != nil {
				l.Sink.AbandonTest()
				return results.MarkInterrupted(), nil
			}
			result, err := l.runTrial(ctx, logger, trial.Trial{Test: test, Sequence: seq})
			if err != nil {
				l.Sink.AbandonTest()
				return results, err
			}
			results = results.Add(result)
			if result.Outcome.Kind == trial.Interrupted {
				l.Sink.AbandonTest()
				return results, nil
			}
		}

		testResults, err := l.Sink.FinishTest(test.Name())
		if err != nil {
			return results, fmt.Errorf("cannot write report for %s: %w", test.Name(), err)
		}
		logger.TestFinished(test.Name(), testResults)
	}
	return results, nil
}

func (l *Loop) runTrial(ctx context.Context, logger report.TrialLogger, tr trial.Trial) (trial.Result, error) {
	command := ""
	if c, err := tr.Test.ClientCommand(tr.Sequence, l.Executor.Wrapper); err == nil {
		command = c.String()
	}
	logger.TrialStarted(tr, command)

	bundle, err := l.Sink.OpenBundle(tr)
	if err != nil {
		return trial.Result{}, fmt.Errorf("cannot create artifacts for %s: %w", tr, err)
	}
	debug := &framework.CapturingLogger{Base: l.DebugLogger}
	result, runErr := l.Executor.Run(ctx, tr, bundle, debug)
	closeErr := bundle.Close()
	if runErr != nil {
		l.Loggers.Errorf("Trial %s could not be completed: %s", tr, runErr)
		return result, runErr
	}
	if closeErr != nil {
		return result, fmt.Errorf("cannot close artifacts for %s: %w", tr, closeErr)
	}

	logger.TrialFinished(result, debug.Output())
	if result.Outcome.Failed() {
		l.Loggers.Warnf("Trial %s failed: %s", tr, result.Outcome)
	}
	if err := l.Sink.Record(result); err != nil {
		return result, fmt.Errorf("cannot record result of %s: %w", tr, err)
	}
	return result, nil
}
