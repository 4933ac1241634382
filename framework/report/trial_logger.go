package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ivy-tools/trial-harness/framework"
	"github.com/ivy-tools/trial-harness/trial"

	"github.com/fatih/color"
)

var consoleTrialPassedColor = color.New(color.FgGreen)             //nolint:gochecknoglobals
var consoleTrialFailedColor = color.New(color.FgRed)               //nolint:gochecknoglobals
var consoleTrialDetailColor = color.New(color.FgYellow)            //nolint:gochecknoglobals
var consoleInterruptedColor = color.New(color.FgMagenta)           //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals

// TrialLogger receives status information about each trial and test as the run proceeds.
type TrialLogger interface {
	TrialStarted(tr trial.Trial, command string)
	TrialFinished(result trial.Result, debugOutput framework.CapturedOutput)
	TestSkipped(testName string, reason string)
	TestFinished(testName string, results []trial.Result)
	EndLog(results Results) error
}

type nullTrialLogger struct{}

func (n nullTrialLogger) TrialStarted(trial.Trial, string)                     {}
func (n nullTrialLogger) TrialFinished(trial.Result, framework.CapturedOutput) {}
func (n nullTrialLogger) TestSkipped(string, string)                           {}
func (n nullTrialLogger) TestFinished(string, []trial.Result)                  {}
func (n nullTrialLogger) EndLog(Results) error                                 { return nil }

func NullTrialLogger() TrialLogger { return nullTrialLogger{} }

// ConsoleTrialLogger prints a progress line when each trial starts, and PASS or FAIL when it
// finishes.
type ConsoleTrialLogger struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTrialLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleTrialLogger) TrialStarted(tr trial.Trial, command string) {
	fmt.Fprintf(c.out(), "%s ...\n", tr)
	if command != "" {
		fmt.Fprintln(c.out(), command)
	}
}

func (c ConsoleTrialLogger) TrialFinished(result trial.Result, debugOutput framework.CapturedOutput) {
	failed := result.Outcome.Failed()
	switch {
	case result.Outcome.Passed():
		_, _ = consoleTrialPassedColor.Fprintln(c.out(), "PASS")
	case failed:
		for _, line := range strings.Split(result.Outcome.String(), "\n") {
			_, _ = consoleTrialDetailColor.Fprintf(c.out(), "  %s\n", line)
		}
		_, _ = consoleTrialFailedColor.Fprintln(c.out(), "FAIL")
	default:
		_, _ = consoleInterruptedColor.Fprintln(c.out(), "INTERRUPTED")
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Fprintln(c.out(), debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTrialLogger) TestSkipped(testName string, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "SKIPPED: %s\n", testName)
	} else {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "SKIPPED: %s (%s)\n", testName, reason)
	}
}

func (c ConsoleTrialLogger) TestFinished(string, []trial.Result) {}

func (c ConsoleTrialLogger) EndLog(Results) error { return nil }

// MultiTrialLogger forwards everything to several loggers.
type MultiTrialLogger struct {
	Loggers []TrialLogger
}

func (m *MultiTrialLogger) TrialStarted(tr trial.Trial, command string) {
	for _, l := range m.Loggers {
		l.TrialStarted(tr, command)
	}
}

func (m *MultiTrialLogger) TrialFinished(result trial.Result, debugOutput framework.CapturedOutput) {
	for _, l := range m.Loggers {
		l.TrialFinished(result, debugOutput)
	}
}

func (m *MultiTrialLogger) TestSkipped(testName string, reason string) {
	for _, l := range m.Loggers {
		l.TestSkipped(testName, reason)
	}
}

func (m *MultiTrialLogger) TestFinished(testName string, results []trial.Result) {
	for _, l := range m.Loggers {
		l.TestFinished(testName, results)
	}
}

func (m *MultiTrialLogger) EndLog(results Results) error {
	var errs []error
	for _, l := range m.Loggers {
		if err := l.EndLog(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PrintResults prints the final line of a completed run: "OK", or the number of failures.
func PrintResults(out io.Writer, results Results) {
	if results.FailureCount() == 0 {
		_, _ = consoleTrialPassedColor.Fprintln(out, "OK")
		return
	}
	_, _ = consoleTrialFailedColor.Fprintf(out, "error: %d test(s) failed\n", results.FailureCount())
	for _, f := range results.Failures {
		_, _ = consoleTrialFailedColor.Fprintf(out, "  * %s: %s\n", f.Trial, f.Outcome)
	}
}

// PrintTerminated replaces the summary of a run that was interrupted.
func PrintTerminated(out io.Writer) {
	_, _ = consoleInterruptedColor.Fprintln(out, "terminated")
}
