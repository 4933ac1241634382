// Package artifacts manages the output directory of a harness run: the per-trial capture
// files and the per-test report files.
package artifacts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const (
	StdoutSuffix = ".out"
	StderrSuffix = ".err"
	EventsSuffix = ".iev"
	ReportSuffix = ".dat"
)

// ErrOutputDirExists is returned by CreateOutputDir if the path is already taken. A run never
// mixes its artifacts with those of an earlier run.
var ErrOutputDirExists = errors.New("output directory already exists")

// OutputDir is a directory created for exactly one harness run.
type OutputDir struct {
	path string
}

// CreateOutputDir creates the directory, which must not exist yet. Its parent must exist.
func CreateOutputDir(path string) (*OutputDir, error) {
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputDirExists, path)
		}
		return nil, err
	}
	return &OutputDir{path: path}, nil
}

// Path returns the directory path.
func (d *OutputDir) Path() string { return d.path }

// Join returns the path of a file inside the directory.
func (d *OutputDir) Join(name string) string { return filepath.Join(d.path, name) }

// TrialBaseName is the common prefix of a trial's artifact file names, such as "quic_stream3".
func TrialBaseName(testName string, seq int) string {
	return testName + strconv.Itoa(seq)
}

// Bundle is the set of capture files for one trial. It is opened when the trial starts, is
// written only by that trial, and is closed when the trial ends.
type Bundle struct {
	Stdout *os.File // server standard output
	Stderr *os.File // server standard error
	Events *os.File // interleaved event log: client output plus harness markers
}

// OpenBundle creates the three capture files for a trial. It fails if any of them already
// exists, so a bundle can never be reused.
func (d *OutputDir) OpenBundle(testName string, seq int) (*Bundle, error) {
	base := TrialBaseName(testName, seq)
	var b Bundle
	for _, f := range []struct {
		target **os.File
		suffix string
	}{
		{&b.Stdout, StdoutSuffix},
		{&b.Stderr, StderrSuffix},
		{&b.Events, EventsSuffix},
	} {
		file, err := createExclusive(d.Join(base + f.suffix))
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		*f.target = file
	}
	return &b, nil
}

// Close closes whichever files are open. It can be called more than once.
func (b *Bundle) Close() error {
	var errs []error
	for _, f := range []**os.File{&b.Stdout, &b.Stderr, &b.Events} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil {
			errs = append(errs, err)
		}
		*f = nil
	}
	return errors.Join(errs...)
}

// Mark appends a harness marker line, such as "timeout", to the event log.
func (b *Bundle) Mark(format string, args ...interface{}) error {
	if b.Events == nil {
		return errors.New("event log is closed")
	}
	_, err := fmt.Fprintf(b.Events, format+"\n", args...)
	return err
}

// CreateReport creates the per-test report file "<testName>.dat".
func (d *OutputDir) CreateReport(testName string) (io.WriteCloser, error) {
	return createExclusive(d.Join(testName + ReportSuffix))
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec
}
