package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashcheck/crashcheck/internal/core"
)

func TestWaitForPath_AlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	err := waitForPath(context.Background(), path, 10*time.Millisecond, time.Second)
	assert.NoError(t, err)
}

func TestWaitForPath_AppearsLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipe")

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0o600)
	}()

	start := time.Now()
	err := waitForPath(context.Background(), path, 10*time.Millisecond, 5*time.Second)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitForPath_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never")

	err := waitForPath(context.Background(), path, 5*time.Millisecond, 40*time.Millisecond)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout))
}

func TestWaitForPath_ContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := waitForPath(ctx, path, 5*time.Millisecond, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForPath_UnwatchableParentFallsBackToPolling(t *testing.T) {
	// Parent directory does not exist, so the watcher cannot attach; the
	// ticker path must still observe creation once the tree appears.
	base := t.TempDir()
	path := filepath.Join(base, "later", "pipe")

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.MkdirAll(filepath.Dir(path), 0o750)
		_ = os.WriteFile(path, nil, 0o600)
	}()

	err := waitForPath(context.Background(), path, 10*time.Millisecond, 5*time.Second)
	assert.NoError(t, err)
}
