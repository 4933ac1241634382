// Package report accumulates trial results and reports them as they happen: to the console,
// to a JUnit XML file, or to both. It also contains the name filters that select which tests
// a run includes.
package report
