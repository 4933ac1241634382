package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/ivy-tools/trial-harness/config"
	"github.com/ivy-tools/trial-harness/framework"
	"github.com/ivy-tools/trial-harness/framework/artifacts"
	"github.com/ivy-tools/trial-harness/framework/journal"
	"github.com/ivy-tools/trial-harness/framework/report"
	"github.com/ivy-tools/trial-harness/stats"
	"github.com/ivy-tools/trial-harness/suite"
	"github.com/ivy-tools/trial-harness/trial"
)

// exitTerminated is the status of a run stopped by SIGINT or SIGTERM, as a shell reports it.
const exitTerminated = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the harness as the command line describes and returns the process exit status.
func execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	var params commandParams
	if !params.Read(args, errOut) {
		return 1
	}

	cfg, err := params.loadConfig()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	dir, err := artifacts.CreateOutputDir(params.outputDir)
	if err != nil {
		fmt.Fprintf(errOut, "cannot create directory %q\n", params.outputDir)
		return 1
	}

	results, err := run(ctx, params, cfg, dir, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintln(out)
	if results.Interrupted {
		report.PrintTerminated(out)
		return exitTerminated
	}
	report.PrintResults(out, results)
	if !results.OK() {
		return 1
	}
	return 0
}

func run(
	ctx context.Context,
	params commandParams,
	cfg config.HarnessConfig,
	dir *artifacts.OutputDir,
	out, errOut io.Writer,
) (report.Results, error) {
	tests, err := cfg.TestCases()
	if err != nil {
		return report.Results{}, err
	}

	loggers := ldlog.NewDefaultLoggers()
	loggers.SetBaseLogger(log.New(errOut, "", log.LstdFlags))
	var debugLogger framework.Logger
	if params.debug {
		loggers.SetMinLevel(ldlog.Debug)
		debugLogger = loggers.ForLevel(ldlog.Debug)
	}

	j, err := journal.Open(dir.Join(journal.DirName))
	if err != nil {
		return report.Results{}, err
	}
	defer func() {
		if err := j.Close(); err != nil {
			loggers.Errorf("Error closing journal: %s", err)
		}
	}()

	var trialLogger report.TrialLogger
	consoleLogger := report.ConsoleTrialLogger{
		Out:                  out,
		DebugOutputOnFailure: true,
		DebugOutputOnSuccess: params.debug,
	}
	if params.jUnitFile == "" {
		trialLogger = consoleLogger
	} else {
		trialLogger = &report.MultiTrialLogger{Loggers: []report.TrialLogger{
			consoleLogger,
			report.NewJUnitTrialLogger(params.jUnitFile, map[string]string{
				"server":     cfg.Server.Path,
				"iterations": strconv.Itoa(params.iterations),
			}),
		}}
	}

	report.PrintFilterDescription(out, params.filters)

	loop := &suite.Loop{
		Executor: &trial.Executor{
			Server:      cfg.TrialServer(),
			Wrapper:     cfg.Wrapper(),
			GracePeriod: time.Duration(cfg.Server.GracePeriod),
		},
		Sink: &suite.Sink{
			Dir:     dir,
			Journal: j,
			Report:  stats.ProduceReport,
		},
		TrialLogger: trialLogger,
		Filter:      params.filters.Match,
		Loggers:     loggers,
		DebugLogger: debugLogger,
	}
	results, err := loop.RunAll(ctx, tests, params.iterations)
	if err != nil {
		return results, err
	}

	if logErr := trialLogger.EndLog(results); logErr != nil {
		return results, fmt.Errorf("error writing log: %v", logErr)
	}
	return results, nil
}
