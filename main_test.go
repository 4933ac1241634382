//go:build unix

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	helpers "github.com/launchdarkly/go-test-helpers/v2"

	"github.com/ivy-tools/trial-harness/framework/artifacts"
	"github.com/ivy-tools/trial-harness/framework/journal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainWrapperScript = "#!/bin/sh\nshift\nexec \"$@\"\n"
	mainServerScript  = "#!/bin/sh\necho \"$$\" > server.pid.tmp && mv server.pid.tmp server.pid\nexec sleep 30\n"
	mainAwaitServer   = "while [ ! -f ../server/server.pid ]; do sleep 0.05; done\nrm -f ../server/server.pid\n"
)

type runFixture struct {
	t      *testing.T
	root   string
	config string
	out    bytes.Buffer
	errOut bytes.Buffer
}

// newRunFixture lays out a server, a timeout wrapper and one client called "client", and a
// config file that refers to them.
func newRunFixture(t *testing.T, clientScript string) *runFixture {
	f := &runFixture{t: t, root: t.TempDir()}
	for _, d := range []string{"server", "tests"} {
		require.NoError(t, os.Mkdir(filepath.Join(f.root, d), 0o755))
	}
	f.writeScript("wrap", mainWrapperScript)
	f.writeScript("server/server", mainServerScript)
	f.writeScript("tests/client", "#!/bin/sh\n"+mainAwaitServer+clientScript)

	f.config = filepath.Join(f.root, "harness.yaml")
	require.NoError(t, os.WriteFile(f.config, []byte(`
server:
  path: ./server
  dir: `+filepath.Join(f.root, "server")+`
  gracePeriod: 2s
client:
  timeoutCommand: `+filepath.Join(f.root, "wrap")+`
tests:
  - dir: `+filepath.Join(f.root, "tests")+`
    cases:
      - name: client
`), 0o600))
	return f
}

func (f *runFixture) writeScript(name, content string) {
	require.NoError(f.t, os.WriteFile(filepath.Join(f.root, name), []byte(content), 0o755)) //nolint:gosec
}

func (f *runFixture) execute(ctx context.Context, args ...string) int {
	return execute(ctx, append([]string{"trial-harness", "--config", f.config}, args...), &f.out, &f.errOut)
}

func TestExecuteAllTrialsPass(t *testing.T) {
	f := newRunFixture(t, "exit 0\n")
	outDir := filepath.Join(f.root, "out")

	assert.Equal(t, 0, f.execute(context.Background(), outDir, "3"))
	assert.Contains(t, f.out.String(), "OK\n")
	assert.True(t, helpers.FilePathExists(filepath.Join(outDir, "client"+artifacts.ReportSuffix)))
	assert.True(t, helpers.FilePathExists(filepath.Join(outDir, artifacts.TrialBaseName("client", 2)+artifacts.EventsSuffix)))
}

func TestExecuteReportsFailures(t *testing.T) {
	f := newRunFixture(t, "if [ \"$1\" = \"seed=1\" ]; then exit 124; fi\nexit 0\n")

	assert.Equal(t, 1, f.execute(context.Background(), filepath.Join(f.root, "out"), "3"))
	assert.Contains(t, f.out.String(), "error: 1 test(s) failed\n")
}

func TestExecuteRefusesExistingOutputDirectory(t *testing.T) {
	f := newRunFixture(t, "exit 0\n")
	outDir := filepath.Join(f.root, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	assert.Equal(t, 1, f.execute(context.Background(), outDir, "3"))
	assert.Equal(t, "cannot create directory \""+outDir+"\"\n", f.errOut.String())
	assert.Empty(t, f.out.String())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no trial should have run")
	assert.False(t, helpers.FilePathExists(filepath.Join(f.root, "server", "server.pid")))
}

func TestExecuteCancelledRunIsTerminated(t *testing.T) {
	f := newRunFixture(t, "exit 0\n")
	outDir := filepath.Join(f.root, "out")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, exitTerminated, f.execute(ctx, outDir, "3"))
	assert.Contains(t, f.out.String(), "terminated\n")
	assert.False(t, helpers.FilePathExists(filepath.Join(outDir, "client"+artifacts.ReportSuffix)))
	assert.True(t, helpers.FilePathExists(filepath.Join(outDir, journal.DirName)))
}

func TestExecuteRejectsBadArguments(t *testing.T) {
	for _, args := range [][]string{
		{"trial-harness"},
		{"trial-harness", "out"},
		{"trial-harness", "out", "many"},
	} {
		var out, errOut bytes.Buffer
		assert.Equal(t, 1, execute(context.Background(), args, &out, &errOut), "%v", args)
		assert.NotEmpty(t, errOut.String())
	}
}
