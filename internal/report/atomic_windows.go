//go:build windows

package report

import (
	"os"
	"path/filepath"
)

// writeFileAtomic writes data to path atomically. renameio does not support
// Windows, so this uses a write-then-rename in the target directory, which
// is atomic on the same volume.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return err
	}
	return nil
}
