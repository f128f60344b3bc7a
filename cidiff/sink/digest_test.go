package sink_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/ci_diff/cidiff/sink"
)

func TestFileDigest_returns_sha256(t *testing.T) {
	t.Parallel()

	pa := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(pa, []byte("hello"), 0o600))

	got, err := sink.FileDigest(pa)

	require.NoError(t, err)
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		got,
	)
}

func TestFileDigest_missing_file(t *testing.T) {
	t.Parallel()

	got, err := sink.FileDigest(filepath.Join(t.TempDir(), "nope"))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveDigest_writes_sidecar(t *testing.T) {
	t.Parallel()

	pa := filepath.Join(t.TempDir(), "diff.txt")
	require.NoError(t, os.WriteFile(pa, []byte("hello"), 0o600))

	digest, err := sink.SaveDigest(pa)
	require.NoError(t, err)

	stored, err := os.ReadFile(pa + sink.DigestSuffix)
	require.NoError(t, err)
	assert.Equal(t, digest, string(stored))
}

func TestSaveDigest_missing_file(t *testing.T) {
	t.Parallel()

	_, err := sink.SaveDigest(filepath.Join(t.TempDir(), "nope"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}
