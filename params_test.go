package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivy-tools/trial-harness/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseParams(t *testing.T, args ...string) (commandParams, error) {
	t.Helper()
	var c commandParams
	err := c.parse(c.application(), args)
	return c, err
}

func TestParsePositionalArguments(t *testing.T) {
	c, err := parseParams(t, "out", "5")
	require.NoError(t, err)
	assert.Equal(t, "out", c.outputDir)
	assert.Equal(t, 5, c.iterations)
	assert.False(t, c.debug)
	assert.False(t, c.filters.IsDefined())
}

func TestParseFlags(t *testing.T) {
	c, err := parseParams(t, "--server", "./srv", "--server-dir", "/opt/srv", "--timeout-cmd", "gtimeout",
		"--timeout-bound", "30", "--grace", "2s", "--run", "stream", "--run", "reset", "--skip", "max",
		"--junit", "out.xml", "--debug", "out", "0")
	require.NoError(t, err)

	assert.Equal(t, "./srv", c.serverPath)
	assert.Equal(t, "/opt/srv", c.serverDir)
	assert.Equal(t, "gtimeout", c.timeoutCmd)
	assert.Equal(t, 30, c.timeoutBound)
	assert.Equal(t, 2*time.Second, c.grace)
	assert.Equal(t, "out.xml", c.jUnitFile)
	assert.True(t, c.debug)
	assert.Equal(t, 0, c.iterations)

	assert.Len(t, c.filters.MustMatch, 2)
	assert.True(t, c.filters.Match("quic_server_test_stream"))
	assert.True(t, c.filters.Match("quic_server_test_reset_stream"))
	assert.False(t, c.filters.Match("quic_server_test_max"))
	assert.False(t, c.filters.Match("quic_server_test_other"))
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"missing count", []string{"out"}},
		{"count not a number", []string{"out", "many"}},
		{"too many arguments", []string{"out", "1", "extra"}},
		{"negative bound", []string{"--timeout-bound", "-1", "out", "1"}},
		{"negative grace", []string{"--grace", "-1s", "out", "1"}},
		{"bad run pattern", []string{"--run", "(", "out", "1"}},
		{"unknown flag", []string{"--nope", "out", "1"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseParams(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := parseParams(t, "out", "1")
	require.NoError(t, err)

	cfg, err := c.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  path: ./from-file
  dir: /from/file
tests:
  - dir: clients
    cases:
      - name: only_test
`), 0o600))

	c, err := parseParams(t, "--config", path, "--server", "./from-flag", "--timeout-bound", "7", "--grace", "1s", "out", "1")
	require.NoError(t, err)

	cfg, err := c.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "./from-flag", cfg.Server.Path)
	assert.Equal(t, "/from/file", cfg.Server.Dir)
	assert.Equal(t, 7, cfg.Client.TimeoutBound)
	assert.Equal(t, config.Duration(time.Second), cfg.Server.GracePeriod)

	tests, err := cfg.TestCases()
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "clients/only_test", tests[0].ID())
}

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := parseParams(t, "--config", "/no/such/harness.yaml", "out", "1")
	require.NoError(t, err)

	_, err = c.loadConfig()
	assert.Error(t, err)
}
