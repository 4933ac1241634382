// Package framework contains the low-level infrastructure of the trial harness that does not
// know anything about the protocol being tested. The base package contains shared types such
// as Logger; other components are in the subpackages procrun, artifacts, journal, and report.
//
// The general model is:
//
// 1. A trial starts a server process and a client-driver process (procrun), with their output
// captured to a per-trial set of artifact files (artifacts).
//
// 2. Each trial is classified purely from exit statuses, and the result is appended to a
// journal in the output directory (journal).
//
// 3. Results are folded into an accumulator and reported to any number of trial loggers,
// such as the console or a JUnit file (report).
//
// The domain-specific code that knows which tests exist and how to invoke their client
// commands lives in the testcase, trial, and suite packages.
package framework
