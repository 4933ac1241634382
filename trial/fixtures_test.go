//go:build unix

package trial

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ivy-tools/trial-harness/framework/artifacts"
	"github.com/ivy-tools/trial-harness/testcase"

	"github.com/stretchr/testify/require"
)

const (
	// passes through everything after the bound, like "timeout" does when it does not fire
	passthroughWrapperScript = "#!/bin/sh\nshift\nexec \"$@\"\n"

	// the pid file is renamed into place so that it is never seen half written
	writePID = "echo \"$$\" > server.pid.tmp && mv server.pid.tmp server.pid"

	// the crashing server writes its pid file only once it has exited
	cleanServerScript    = "#!/bin/sh\necho listening\n" + writePID + "\nexec sleep 30\n"
	crashingServerScript = "#!/bin/sh\necho oops >&2\n(sleep 0.2; " + writePID + ") &\nexit 1\n"
	stubbornServerScript = "#!/bin/sh\ntrap '' TERM\n" + writePID + "\nwhile :; do sleep 1; done\n"

	// clients start only once the server has written its pid file
	waitForServer = "while [ ! -f ../server/server.pid ]; do sleep 0.05; done\n"

	passingClientScript = "#!/bin/sh\n" + waitForServer + "echo \"client $1\"\nexit 0\n"
	hangingClientScript = "#!/bin/sh\n" + waitForServer + "exec sleep 30\n"
)

// clientExitingWith returns a client script that exits with code for sequence seq, and
// passes otherwise.
func clientExitingWith(seq string, code string) string {
	return "#!/bin/sh\n" + waitForServer + "if [ \"$1\" = \"seed=" + seq + "\" ]; then exit " + code + "; fi\nexit 0\n"
}

type fixture struct {
	t         *testing.T
	root      string
	serverDir string
	testDir   string
	out       *artifacts.OutputDir
	executor  *Executor
}

func newFixture(t *testing.T, serverScript string) *fixture {
	root := t.TempDir()
	f := &fixture{
		t:         t,
		root:      root,
		serverDir: filepath.Join(root, "server"),
		testDir:   filepath.Join(root, "tests"),
	}
	require.NoError(t, os.Mkdir(f.serverDir, 0o755))
	require.NoError(t, os.Mkdir(f.testDir, 0o755))
	f.writeScript(filepath.Join(root, "wrap"), passthroughWrapperScript)
	f.writeScript(filepath.Join(f.serverDir, "server"), serverScript)

	out, err := artifacts.CreateOutputDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	f.out = out

	f.executor = &Executor{
		Server:  Server{Path: "./server", Dir: f.serverDir},
		Wrapper: testcase.TimeoutWrapper{Command: filepath.Join(root, "wrap"), Bound: 100},
	}
	return f
}

func (f *fixture) writeScript(path, content string) {
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o755)) //nolint:gosec
}

func (f *fixture) addClient(name, script string) testcase.TestCase {
	f.writeScript(filepath.Join(f.testDir, name), script)
	tc, err := testcase.New(f.testDir, name, "test_completed")
	require.NoError(f.t, err)
	return tc
}

func (f *fixture) bundle(name string, seq int) *artifacts.Bundle {
	b, err := f.out.OpenBundle(name, seq)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) artifact(name string, seq int, suffix string) string {
	data, err := os.ReadFile(f.out.Join(artifacts.TrialBaseName(name, seq) + suffix))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) serverPIDFileExists() bool {
	_, err := os.Stat(filepath.Join(f.serverDir, "server.pid"))
	return err == nil
}

func (f *fixture) serverPID() int {
	data, err := os.ReadFile(filepath.Join(f.serverDir, "server.pid"))
	require.NoError(f.t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(f.t, err)
	require.NotZero(f.t, pid)
	return pid
}
