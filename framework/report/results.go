package report

import (
	"github.com/ivy-tools/trial-harness/trial"
)

// Results accumulates the results of a run. It is a value: Add returns the updated copy, so the
// harness loop threads it through explicitly rather than sharing a counter.
type Results struct {
	Trials      []trial.Result
	Failures    []trial.Result
	Interrupted bool

	tip *foldTip
}

// foldTip records how much of the backing arrays of Trials and Failures has been handed out.
// Only the value whose lengths match it may append in place; any other value copies first.
type foldTip struct {
	trials   int
	failures int
}

// Add folds one trial result into the accumulator. An interrupted trial marks the whole run as
// interrupted but is not counted as a failure. Earlier values are never modified, and folding
// N results one after another costs O(N).
func (r Results) Add(result trial.Result) Results {
	tip := r.tip
	if tip == nil || tip.trials != len(r.Trials) || tip.failures != len(r.Failures) {
		tip = &foldTip{}
		r.Trials = r.Trials[:len(r.Trials):len(r.Trials)]
		r.Failures = r.Failures[:len(r.Failures):len(r.Failures)]
	}
	ret := Results{
		Trials:      append(r.Trials, result),
		Failures:    r.Failures,
		Interrupted: r.Interrupted,
		tip:         tip,
	}
	switch {
	case result.Outcome.Kind == trial.Interrupted:
		ret.Interrupted = true
	case result.Outcome.Failed():
		ret.Failures = append(ret.Failures, result)
	}
	tip.trials, tip.failures = len(ret.Trials), len(ret.Failures)
	return ret
}

// MarkInterrupted returns a copy flagged as interrupted.
func (r Results) MarkInterrupted() Results {
	r.Interrupted = true
	return r
}

// FailureCount is the number of failed trials.
func (r Results) FailureCount() int {
	return len(r.Failures)
}

// OK is true if the run completed and nothing failed.
func (r Results) OK() bool {
	return !r.Interrupted && len(r.Failures) == 0
}

// ForTest returns the results of one test, in the order they were added.
func (r Results) ForTest(name string) []trial.Result {
	var ret []trial.Result
	for _, t := range r.Trials {
		if t.Trial.Test.Name() == name {
			ret = append(ret, t)
		}
	}
	return ret
}
