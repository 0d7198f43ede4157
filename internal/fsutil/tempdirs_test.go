package fsutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempDirRegistry_AcquireCreatesUniqueDirs(t *testing.T) {
	r := NewTempDirRegistry()
	defer r.ReleaseAll()

	a, err := r.Acquire()
	require.NoError(t, err)
	b, err := r.Acquire()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, d := range []string{a, b} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestTempDirRegistry_ReleaseAllRemovesEverything(t *testing.T) {
	r := NewTempDirRegistry()

	a, err := r.Acquire()
	require.NoError(t, err)
	b, err := r.Acquire()
	require.NoError(t, err)

	// Populate so removal has to recurse.
	require.NoError(t, os.WriteFile(a+"/report.dmp", []byte("x"), 0o600))

	r.ReleaseAll()

	for _, d := range []string{a, b} {
		_, err := os.Stat(d)
		assert.True(t, os.IsNotExist(err), "expected %s to be gone", d)
	}
}

func TestTempDirRegistry_ReleaseAllIsIdempotent(t *testing.T) {
	r := NewTempDirRegistry()
	_, err := r.Acquire()
	require.NoError(t, err)

	r.ReleaseAll()
	r.ReleaseAll()

	assert.Empty(t, r.Dirs())
}
