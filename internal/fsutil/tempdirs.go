package fsutil

import (
	"os"
	"sync"
)

// TempDirRegistry tracks temporary directories created during a run so they
// can be released together at the end, whatever the outcome. The run itself
// is sequential; the mutex guards against incidental concurrent acquisition
// (e.g. background draining goroutines requesting scratch space).
type TempDirRegistry struct {
	mu   sync.Mutex
	dirs []string
}

// NewTempDirRegistry creates an empty registry.
func NewTempDirRegistry() *TempDirRegistry {
	return &TempDirRegistry{}
}

// Acquire creates and registers a fresh empty temporary directory, unique
// per call, and returns its path.
func (r *TempDirRegistry) Acquire() (string, error) {
	dir, err := os.MkdirTemp("", "crashcheck-*")
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.dirs = append(r.dirs, dir)
	r.mu.Unlock()
	return dir, nil
}

// ReleaseAll force-removes every registered directory. Removal is
// best-effort: a directory that cannot be deleted (say, a file still held
// open by a straggling process) does not block removal of the rest.
// Call exactly once, on every exit path of the run.
func (r *TempDirRegistry) ReleaseAll() {
	r.mu.Lock()
	dirs := r.dirs
	r.dirs = nil
	r.mu.Unlock()

	for _, d := range dirs {
		_ = os.RemoveAll(d)
	}
}

// Dirs returns a snapshot of the registered directories.
func (r *TempDirRegistry) Dirs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.dirs))
	copy(out, r.dirs)
	return out
}
