package suite

import (
	"io"

	"github.com/ivy-tools/trial-harness/framework/artifacts"
	"github.com/ivy-tools/trial-harness/framework/journal"
	"github.com/ivy-tools/trial-harness/trial"
)

// ReportFunc produces the per-test report from the results of all of a test's trials. It must
// not retain results or w.
type ReportFunc func(testName string, w io.Writer, results []trial.Result) error

// Sink owns the output directory of a run. It hands out per-trial bundles, persists every
// result to the journal, and writes each test's report once the test is complete.
type Sink struct {
	Dir     *artifacts.OutputDir
	Journal *journal.Journal // optional
	Report  ReportFunc

	current []trial.Result
}

// OpenBundle creates the artifact files for one trial.
func (s *Sink) OpenBundle(tr trial.Trial) (*artifacts.Bundle, error) {
	return s.Dir.OpenBundle(tr.Test.Name(), tr.Sequence)
}

// Record accumulates a result for the current test and appends it to the journal.
func (s *Sink) Record(r trial.Result) error {
	s.current = append(s.current, r)
	if s.Journal == nil {
		return nil
	}
	return s.Journal.Append(r)
}

// FinishTest writes the report for the current test and starts accumulating for the next one.
// It returns the results of the finished test.
func (s *Sink) FinishTest(testName string) ([]trial.Result, error) {
	results := s.current
	s.current = nil
	if s.Report == nil {
		return results, nil
	}
	w, err := s.Dir.CreateReport(testName)
	if err != nil {
		return results, err
	}
	if err := s.Report(testName, w, results); err != nil {
		_ = w.Close()
		return results, err
	}
	return results, w.Close()
}

// AbandonTest discards the results accumulated for an interrupted test without writing a
// report; they remain in the journal.
func (s *Sink) AbandonTest() {
	s.current = nil
}
