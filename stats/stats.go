// Package stats summarizes the trials of one test into its ".dat" report.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/ivy-tools/trial-harness/trial"
)

// Summary counts the trials of one test by outcome.
type Summary struct {
	Trials         int
	Passed         int
	Timeouts       int
	ClientFailures int
	ServerFailures int
	Interrupted    int

	MinDuration  time.Duration
	MaxDuration  time.Duration
	MeanDuration time.Duration
}

// Failures is the number of trials that count as failed.
func (s Summary) Failures() int {
	return s.Timeouts + s.ClientFailures + s.ServerFailures
}

// Summarize computes a Summary. Durations cover every trial that was not interrupted.
func Summarize(results []trial.Result) Summary {
	var s Summary
	var total time.Duration
	timed := 0
	for _, r := range results {
		s.Trials++
		switch r.Outcome.Kind {
		case trial.Passed:
			s.Passed++
		case trial.ClientTimeout:
			s.Timeouts++
		case trial.ClientNonZeroExit:
			s.ClientFailures++
		case trial.ServerAbnormalExit:
			s.ServerFailures++
		case trial.Interrupted:
			s.Interrupted++
			continue
		}
		if timed == 0 || r.Duration < s.MinDuration {
			s.MinDuration = r.Duration
		}
		if r.Duration > s.MaxDuration {
			s.MaxDuration = r.Duration
		}
		total += r.Duration
		timed++
	}
	if timed > 0 {
		s.MeanDuration = total / time.Duration(timed)
	}
	return s
}

// ProduceReport writes the report for one test. It only reads results.
func ProduceReport(testName string, w io.Writer, results []trial.Result) error {
	s := Summarize(results)
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# test %s\n", testName)
	fmt.Fprintf(bw, "# trials %d passed %d failed %d timeouts %d client_failures %d server_failures %d interrupted %d\n",
		s.Trials, s.Passed, s.Failures(), s.Timeouts, s.ClientFailures, s.ServerFailures, s.Interrupted)
	fmt.Fprintln(bw, "# seq outcome code duration_ms")
	for _, r := range results {
		fmt.Fprintf(bw, "%d %s %d %d\n",
			r.Trial.Sequence, r.Outcome.Kind, r.Outcome.Code, r.Duration.Milliseconds())
	}
	fmt.Fprintf(bw, "# duration_ms min %d mean %d max %d\n",
		s.MinDuration.Milliseconds(), s.MeanDuration.Milliseconds(), s.MaxDuration.Milliseconds())

	return bw.Flush()
}
