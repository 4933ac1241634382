package main

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ivy-tools/trial-harness/config"
	"github.com/ivy-tools/trial-harness/framework/report"
)

type commandParams struct {
	outputDir    string
	iterations   int
	configFile   string
	serverPath   string
	serverDir    string
	timeoutCmd   string
	timeoutBound int
	grace        time.Duration
	filters      report.NameFilters
	jUnitFile    string
	debug        bool
}

func (c *commandParams) application() *kingpin.Application {
	app := kingpin.New("trial-harness", "Runs every configured test repeatedly against a freshly started server.")
	app.Arg("output-directory", "directory to create for trial artifacts").Required().StringVar(&c.outputDir)
	app.Arg("iteration-count", "number of trials to run for each test").Required().IntVar(&c.iterations)
	app.Flag("config", "JSON or YAML file describing the server and the tests").StringVar(&c.configFile)
	app.Flag("server", "server executable, relative to the server directory").StringVar(&c.serverPath)
	app.Flag("server-dir", "working directory of the server").StringVar(&c.serverDir)
	app.Flag("timeout-cmd", "timeout wrapper for client runs").StringVar(&c.timeoutCmd)
	app.Flag("timeout-bound", "time bound passed to the timeout wrapper").IntVar(&c.timeoutBound)
	app.Flag("grace", "how long to wait for a terminated process to exit").DurationVar(&c.grace)
	app.Flag("run", "regex pattern(s) to select tests to run").SetValue(&c.filters.MustMatch)
	app.Flag("skip", "regex pattern(s) to select tests not to run").SetValue(&c.filters.MustNotMatch)
	app.Flag("junit", "write JUnit XML output to the specified path").StringVar(&c.jUnitFile)
	app.Flag("debug", "enable debug logging").BoolVar(&c.debug)
	return app
}

func (c *commandParams) Read(args []string, errOut io.Writer) bool {
	app := c.application()
	if err := c.parse(app, args[1:]); err != nil {
		fmt.Fprintln(errOut, err)
		app.UsageWriter(errOut)
		app.Usage(nil)
		return false
	}
	return true
}

func (c *commandParams) parse(app *kingpin.Application, args []string) error {
	if _, err := app.Parse(args); err != nil {
		return err
	}
	switch {
	case c.iterations < 0:
		return fmt.Errorf("iteration count must not be negative, got %d", c.iterations)
	case c.timeoutBound < 0:
		return fmt.Errorf("--timeout-bound must not be negative, got %d", c.timeoutBound)
	case c.grace < 0:
		return fmt.Errorf("--grace must not be negative, got %s", c.grace)
	}
	return nil
}

// loadConfig reads the config file, if any, and applies the command-line overrides.
func (c *commandParams) loadConfig() (config.HarnessConfig, error) {
	cfg := config.Default()
	if c.configFile != "" {
		loaded, err := config.Load(c.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if c.serverPath != "" {
		cfg.Server.Path = c.serverPath
	}
	if c.serverDir != "" {
		cfg.Server.Dir = c.serverDir
	}
	if c.timeoutCmd != "" {
		cfg.Client.TimeoutCommand = c.timeoutCmd
	}
	if c.timeoutBound > 0 {
		cfg.Client.TimeoutBound = c.timeoutBound
	}
	if c.grace > 0 {
		cfg.Server.GracePeriod = config.Duration(c.grace)
	}
	return cfg, cfg.Validate()
}
