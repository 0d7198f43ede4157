//go:build !windows

package report

import (
	"os"

	"github.com/google/renameio/v2"
)

// writeFileAtomic writes data to path atomically via renameio.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
