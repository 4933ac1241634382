package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	helpers "github.com/launchdarkly/go-test-helpers/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOutputDir(t *testing.T) {
	parent := t.TempDir()
	path := filepath.Join(parent, "run1")

	d, err := CreateOutputDir(path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Path())
	assert.True(t, helpers.FilePathExists(path))

	t.Run("fails if it already exists", func(t *testing.T) {
		_, err := CreateOutputDir(path)
		assert.ErrorIs(t, err, ErrOutputDirExists)
	})

	t.Run("fails if parent is missing", func(t *testing.T) {
		_, err := CreateOutputDir(filepath.Join(parent, "no", "such"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrOutputDirExists)
	})
}

func TestOpenBundleCreatesTrialFiles(t *testing.T) {
	d, err := CreateOutputDir(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	b, err := d.OpenBundle("quic_server_test_stream", 3)
	require.NoError(t, err)
	_, err = b.Stdout.WriteString("server says hi\n")
	require.NoError(t, err)
	require.NoError(t, b.Mark("server_return_code(%d)", 1))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	for _, suffix := range []string{".out", ".err", ".iev"} {
		assert.True(t, helpers.FilePathExists(d.Join("quic_server_test_stream3"+suffix)), suffix)
	}
	out, _ := os.ReadFile(d.Join("quic_server_test_stream3.out"))
	assert.Equal(t, "server says hi\n", string(out))
	iev, _ := os.ReadFile(d.Join("quic_server_test_stream3.iev"))
	assert.Equal(t, "server_return_code(1)\n", string(iev))

	assert.Error(t, b.Mark("too late"))
}

func TestOpenBundleIsNeverReused(t *testing.T) {
	d, err := CreateOutputDir(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	b, err := d.OpenBundle("t", 0)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = d.OpenBundle("t", 0)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestCreateReport(t *testing.T) {
	d, err := CreateOutputDir(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	w, err := d.CreateReport("t")
	require.NoError(t, err)
	_, _ = w.Write([]byte("# t\n"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(d.Join("t.dat"))
	require.NoError(t, err)
	assert.Equal(t, "# t\n", string(data))
}
