package testcase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCommandShape(t *testing.T) {
	tc, err := New("..", "quic_server_test_stream", "test_completed")
	require.NoError(t, err)

	c, err := tc.ClientCommand(7, DefaultTimeoutWrapper())
	require.NoError(t, err)
	assert.Equal(t, "timeout", c.Path())
	assert.Equal(t, []string{"100", "./quic_server_test_stream", "seed=7"}, c.Args())
	assert.Equal(t, "timeout 100 ./quic_server_test_stream seed=7", c.String())
}

func TestClientCommandIsDeterministic(t *testing.T) {
	tc, err := New(".", "t", "", "iters=3")
	require.NoError(t, err)
	for seq := 0; seq < 3; seq++ {
		a, err := tc.ClientCommand(seq, DefaultTimeoutWrapper())
		require.NoError(t, err)
		b, err := tc.ClientCommand(seq, DefaultTimeoutWrapper())
		require.NoError(t, err)
		assert.Equal(t, a.Argv(), b.Argv())
		assert.Equal(t, fmt.Sprintf("timeout 100 ./t seed=%d iters=3", seq), a.String())
	}
}

func TestClientCommandValidation(t *testing.T) {
	good := DefaultTimeoutWrapper()
	for _, p := range []struct {
		desc    string
		wrapper TimeoutWrapper
		name    string
		seq     int
	}{
		{"empty name", good, "", 0},
		{"name with separator", good, "../evil", 0},
		{"dot name", good, "..", 0},
		{"negative sequence", good, "t", -1},
		{"empty wrapper", TimeoutWrapper{Bound: 100}, "t", 0},
		{"zero bound", TimeoutWrapper{Command: "timeout"}, "t", 0},
	} {
		t.Run(p.desc, func(t *testing.T) {
			_, err := NewClientCommand(p.wrapper, p.name, p.seq)
			assert.Error(t, err)
		})
	}
}

func TestShellMetacharactersAreNotInterpreted(t *testing.T) {
	c, err := NewClientCommand(DefaultTimeoutWrapper(), "t;rm", 0, "$(whoami)")
	require.NoError(t, err)
	assert.Equal(t, []string{"timeout", "100", "./t;rm", "seed=0", "$(whoami)"}, c.Argv())
}

func TestTestCaseIsImmutable(t *testing.T) {
	opts := []string{"a"}
	tc, err := New("", "t", "done", opts...)
	require.NoError(t, err)
	opts[0] = "changed"
	assert.Equal(t, []string{"a"}, tc.Options())

	got := tc.Options()
	got[0] = "changed"
	assert.Equal(t, []string{"a"}, tc.Options())

	assert.Equal(t, ".", tc.Dir())
	assert.Equal(t, "./t", tc.ID())
	assert.Equal(t, "done", tc.ExpectedResult())
}

func TestPreprocessCommands(t *testing.T) {
	tc, err := New(".", "t", "")
	require.NoError(t, err)
	assert.Empty(t, tc.PreprocessCommands())

	cmd := []string{"make", "t"}
	tc2 := tc.WithPreprocess(cmd)
	cmd[0] = "changed"
	assert.Equal(t, [][]string{{"make", "t"}}, tc2.PreprocessCommands())
	assert.Empty(t, tc.PreprocessCommands())
}
