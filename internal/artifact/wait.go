package artifact

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crashcheck/crashcheck/internal/core"
)

// waitForPath blocks until path exists, the timeout elapses, or ctx is
// canceled. The capture server signals readiness by creating the path; the
// harness only observes it. A watcher on the parent directory wakes the
// wait early where the path is watchable; the Windows pipe namespace is
// not, so a ticker poll at interval backstops it either way.
func waitForPath(ctx context.Context, path string, interval, timeout time.Duration) error {
	if pathExists(path) {
		return nil
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	var events chan fsnotify.Event
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		if err := watcher.Add(filepath.Dir(path)); err == nil {
			defer watcher.Close()
			events = make(chan fsnotify.Event, 1)
			go func() {
				for ev := range watcher.Events {
					if ev.Op.Has(fsnotify.Create) && ev.Name == path {
						select {
						case events <- ev:
						default:
						}
						return
					}
				}
			}()
		} else {
			watcher.Close()
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return core.ErrTimeout(core.CodeReadinessTimeout,
				"capture server did not signal readiness within "+timeout.String())
		case <-events:
			if pathExists(path) {
				return nil
			}
		case <-ticker.C:
			if pathExists(path) {
				return nil
			}
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
