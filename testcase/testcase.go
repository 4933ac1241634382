// Package testcase describes the tests that the harness runs, and builds the command line
// that drives one trial of a test.
package testcase

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

const (
	// DefaultTimeoutCommand is the timeout wrapper that bounds every client run.
	DefaultTimeoutCommand = "timeout"

	// DefaultTimeoutBound is the argument passed to the timeout wrapper, in seconds.
	DefaultTimeoutBound = 100

	// TimeoutExitCode is what the timeout wrapper exits with when the bound is reached.
	TimeoutExitCode = 124
)

var errEmptyName = errors.New("test name must not be empty")

// TestCase is one test: a client-driver program named Name, run from Dir. It is immutable.
type TestCase struct {
	dir        string
	name       string
	expected   string
	options    []string
	preprocess [][]string
}

// New creates a TestCase. The name becomes both the client program (./<name>) and the prefix
// of every artifact file, so it may not be empty or contain a path separator.
func New(dir, name, expected string, options ...string) (TestCase, error) {
	if err := validateName(name); err != nil {
		return TestCase{}, err
	}
	if dir == "" {
		dir = "."
	}
	return TestCase{
		dir:      dir,
		name:     name,
		expected: expected,
		options:  slices.Clone(options),
	}, nil
}

// WithPreprocess returns a copy of the test that runs the given commands before each trial.
func (t TestCase) WithPreprocess(commands ...[]string) TestCase {
	t.preprocess = cloneCommands(commands)
	return t
}

func (t TestCase) Dir() string            { return t.dir }
func (t TestCase) Name() string           { return t.name }
func (t TestCase) ExpectedResult() string { return t.expected }
func (t TestCase) Options() []string      { return slices.Clone(t.options) }

// ID is "<dir>/<name>", the form shown in progress output.
func (t TestCase) ID() string {
	return t.dir + "/" + t.name
}

// PreprocessCommands returns the commands to run to completion before each trial. There are
// none unless the test was configured with WithPreprocess.
func (t TestCase) PreprocessCommands() [][]string {
	return cloneCommands(t.preprocess)
}

// ClientCommand builds the client invocation for one trial.
func (t TestCase) ClientCommand(seq int, wrapper TimeoutWrapper) (ClientCommand, error) {
	return NewClientCommand(wrapper, t.name, seq, t.options...)
}

// TimeoutWrapper is the external program that bounds the client's running time.
type TimeoutWrapper struct {
	Command string
	Bound   int
}

// DefaultTimeoutWrapper returns "timeout 100".
func DefaultTimeoutWrapper() TimeoutWrapper {
	return TimeoutWrapper{Command: DefaultTimeoutCommand, Bound: DefaultTimeoutBound}
}

// ClientCommand is the validated command line for one client run. It is executed directly,
// never through a shell.
type ClientCommand struct {
	wrapper TimeoutWrapper
	name    string
	seq     int
	options []string
}

// NewClientCommand validates its inputs; see ClientCommand.Argv for the rendered shape.
func NewClientCommand(wrapper TimeoutWrapper, name string, seq int, options ...string) (ClientCommand, error) {
	if err := validateName(name); err != nil {
		return ClientCommand{}, err
	}
	if seq < 0 {
		return ClientCommand{}, fmt.Errorf("sequence number must not be negative, got %d", seq)
	}
	if wrapper.Command == "" {
		return ClientCommand{}, errors.New("timeout wrapper command must not be empty")
	}
	if wrapper.Bound <= 0 {
		return ClientCommand{}, fmt.Errorf("timeout bound must be positive, got %d", wrapper.Bound)
	}
	return ClientCommand{wrapper: wrapper, name: name, seq: seq, options: slices.Clone(options)}, nil
}

// Path is the executable to launch, which is the timeout wrapper.
func (c ClientCommand) Path() string { return c.wrapper.Command }

// Args are the arguments after Path: "<bound> ./<name> seed=<seq> <options>...".
func (c ClientCommand) Args() []string {
	args := []string{
		strconv.Itoa(c.wrapper.Bound),
		"./" + c.name,
		"seed=" + strconv.Itoa(c.seq),
	}
	return append(args, c.options...)
}

// Argv is Path followed by Args.
func (c ClientCommand) Argv() []string {
	return append([]string{c.Path()}, c.Args()...)
}

func (c ClientCommand) String() string {
	return strings.Join(c.Argv(), " ")
}

func validateName(name string) error {
	if name == "" {
		return errEmptyName
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("test name %q must not contain a path separator", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid test name %q", name)
	}
	return nil
}

func cloneCommands(commands [][]string) [][]string {
	if len(commands) == 0 {
		return nil
	}
	ret := make([][]string, 0, len(commands))
	for _, c := range commands {
		ret = append(ret, slices.Clone(c))
	}
	return ret
}
