package trial

import (
	"fmt"
	"time"

	"github.com/ivy-tools/trial-harness/testcase"
)

// Trial is one execution of a test at one sequence number. The sequence number is the seed
// passed to the client.
type Trial struct {
	Test     testcase.TestCase
	Sequence int
}

func (t Trial) String() string {
	return fmt.Sprintf("%s (%d)", t.Test.ID(), t.Sequence)
}

type OutcomeKind int

const (
	Passed OutcomeKind = iota
	ClientNonZeroExit
	ClientTimeout
	ServerAbnormalExit
	Interrupted
)

var outcomeKindNames = map[OutcomeKind]string{ //nolint:gochecknoglobals
	Passed:             "passed",
	ClientNonZeroExit:  "client_nonzero_exit",
	ClientTimeout:      "client_timeout",
	ServerAbnormalExit: "server_abnormal_exit",
	Interrupted:        "interrupted",
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	if _, ok := outcomeKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown outcome kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *OutcomeKind) UnmarshalText(data []byte) error {
	for kind, name := range outcomeKindNames {
		if name == string(data) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", string(data))
}

// Outcome is how a trial ended. Code is the client's or server's return code for the kinds
// that carry one. Step is set when a preprocessing command, not the client, exited non-zero.
type Outcome struct {
	Kind OutcomeKind
	Code int
	Step string
}

func PassedOutcome() Outcome { return Outcome{Kind: Passed} }

func TimeoutOutcome() Outcome {
	return Outcome{Kind: ClientTimeout, Code: testcase.TimeoutExitCode}
}

func InterruptedOutcome() Outcome { return Outcome{Kind: Interrupted} }

func ClientExitOutcome(code int) Outcome {
	return Outcome{Kind: ClientNonZeroExit, Code: code}
}

func ServerExitOutcome(code int) Outcome {
	return Outcome{Kind: ServerAbnormalExit, Code: code}
}

// Passed reports whether the trial passed.
func (o Outcome) Passed() bool { return o.Kind == Passed }

// Failed reports whether the trial counts as a failure. Interrupted trials do not.
func (o Outcome) Failed() bool { return o.Kind != Passed && o.Kind != Interrupted }

func (o Outcome) String() string {
	switch o.Kind {
	case Passed:
		return "passed"
	case ClientTimeout:
		return "client timed out"
	case ClientNonZeroExit:
		if o.Step != "" {
			return fmt.Sprintf("preprocessing step %q returned %d", o.Step, o.Code)
		}
		return fmt.Sprintf("client return code: %d", o.Code)
	case ServerAbnormalExit:
		return fmt.Sprintf("server return code: %d", o.Code)
	case Interrupted:
		return "interrupted"
	default:
		return o.Kind.String()
	}
}

// Result is the record of one completed trial.
type Result struct {
	Trial    Trial
	Outcome  Outcome
	Start    time.Time
	Duration time.Duration
}
