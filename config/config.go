// Package config defines which tests a harness run executes and how the server and client are
// launched. The built-in defaults can be replaced by a JSON or YAML file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slices"

	"github.com/ivy-tools/trial-harness/testcase"
	"github.com/ivy-tools/trial-harness/trial"
)

const (
	DefaultServerPath = "./picoquicdemo"
	DefaultServerDir  = "."
	DefaultTestDir    = ".."
	DefaultExpected   = "test_completed"
)

// HarnessConfig is the whole configuration of a run.
type HarnessConfig struct {
	Server ServerConfig `json:"server"`
	Client ClientConfig `json:"client"`
	Tests  []TestGroup  `json:"tests"`
}

// ServerConfig is the server under test. It is launched with no arguments unless Args is set.
type ServerConfig struct {
	Path        string   `json:"path"`
	Args        []string `json:"args,omitempty"`
	Dir         string   `json:"dir"`
	GracePeriod Duration `json:"gracePeriod,omitempty"`
}

// ClientConfig is the timeout wrapper that every client run goes through.
type ClientConfig struct {
	TimeoutCommand string `json:"timeoutCommand"`
	TimeoutBound   int    `json:"timeoutBound"`
}

// TestGroup is a set of tests whose client programs live in the same directory.
type TestGroup struct {
	Dir   string       `json:"dir"`
	Cases []CaseConfig `json:"cases"`
}

// CaseConfig is one test within a group.
type CaseConfig struct {
	Name       string     `json:"name"`
	Expect     string     `json:"expect,omitempty"`
	Options    []string   `json:"options,omitempty"`
	Preprocess [][]string `json:"preprocess,omitempty"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the built-in configuration: the QUIC server tests, run against picoquicdemo.
func Default() HarnessConfig {
	return HarnessConfig{
		Server: ServerConfig{
			Path:        DefaultServerPath,
			Dir:         DefaultServerDir,
			GracePeriod: Duration(trial.DefaultGracePeriod),
		},
		Client: ClientConfig{
			TimeoutCommand: testcase.DefaultTimeoutCommand,
			TimeoutBound:   testcase.DefaultTimeoutBound,
		},
		Tests: []TestGroup{
			{
				Dir: DefaultTestDir,
				Cases: []CaseConfig{
					{Name: "quic_server_test_stream", Expect: DefaultExpected},
					{Name: "quic_server_test_reset_stream", Expect: DefaultExpected},
				},
			},
		},
	}
}

// Load reads a config file. Settings that the file leaves out keep their default values, except
// for the test list, which the file replaces entirely if it has one.
func Load(path string) (HarnessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HarnessConfig{}, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	c := Default()
	c.Tests = nil
	if err := decodeConfig(path, data, &c); err != nil {
		return HarnessConfig{}, err
	}
	if len(c.Tests) == 0 {
		c.Tests = Default().Tests
	}
	return c, c.Validate()
}

// Validate checks the settings that TestCases and the executor do not check themselves.
func (c HarnessConfig) Validate() error {
	if c.Server.Path == "" {
		return errors.New("server path must not be empty")
	}
	if c.Server.GracePeriod < 0 {
		return errors.New("server grace period must not be negative")
	}
	_, err := c.TestCases()
	return err
}

// Wrapper returns the client timeout wrapper.
func (c HarnessConfig) Wrapper() testcase.TimeoutWrapper {
	return testcase.TimeoutWrapper{Command: c.Client.TimeoutCommand, Bound: c.Client.TimeoutBound}
}

// TrialServer returns the server launch settings for the trial executor.
func (c HarnessConfig) TrialServer() trial.Server {
	return trial.Server{Path: c.Server.Path, Args: slices.Clone(c.Server.Args), Dir: c.Server.Dir}
}

// TestCases builds the test list in configuration order. Names must be unique across the whole
// run, not just within a directory, because all artifact files share one output directory.
func (c HarnessConfig) TestCases() ([]testcase.TestCase, error) {
	var ret []testcase.TestCase
	seen := make(map[string]bool)
	for _, group := range c.Tests {
		for _, cc := range group.Cases {
			tc, err := testcase.New(group.Dir, cc.Name, cc.Expect, cc.Options...)
			if err != nil {
				return nil, err
			}
			if seen[tc.Name()] {
				return nil, fmt.Errorf("duplicate test name %q", tc.Name())
			}
			seen[tc.Name()] = true
			if len(cc.Preprocess) > 0 {
				tc = tc.WithPreprocess(cc.Preprocess...)
			}
			ret = append(ret, tc)
		}
	}
	return ret, nil
}
