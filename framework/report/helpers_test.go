package report

import (
	"testing"
	"time"

	"github.com/ivy-tools/trial-harness/testcase"
	"github.com/ivy-tools/trial-harness/trial"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func init() { //nolint:gochecknoinits
	color.NoColor = true
}

func makeResult(t *testing.T, name string, seq int, outcome trial.Outcome) trial.Result {
	tc, err := testcase.New("..", name, "test_completed")
	require.NoError(t, err)
	return trial.Result{
		Trial:    trial.Trial{Test: tc, Sequence: seq},
		Outcome:  outcome,
		Duration: time.Millisecond * 250,
	}
}
