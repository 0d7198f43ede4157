package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/crashcheck/crashcheck/internal/logging"
)

// ExecDatabaseUtil drives the crashpad_database_util executable. It
// implements core.DatabaseUtil.
type ExecDatabaseUtil struct {
	BinDir string
	Logger *logging.Logger
}

// Create initializes a fresh report database in dir. The tool's non-zero
// exit is the only failure signal it offers.
func (u *ExecDatabaseUtil) Create(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, u.toolPath(), "--create", "--database="+dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		u.Logger.Error("database: create failed", "database", dir, "output", string(out), "error", err)
		return fmt.Errorf("creating report database: %w", err)
	}
	return nil
}

// CompletedReports returns the raw stdout of the completed-report listing
// with full report detail.
func (u *ExecDatabaseUtil) CompletedReports(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, u.toolPath(),
		"--database="+dir,
		"--show-completed-reports",
		"--show-all-report-info",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		u.Logger.Error("database: listing reports failed", "database", dir, "stderr", stderr.String(), "error", err)
		return "", fmt.Errorf("listing completed reports: %w", err)
	}
	return stdout.String(), nil
}

func (u *ExecDatabaseUtil) toolPath() string {
	return filepath.Join(u.BinDir, DatabaseUtilExecutable())
}
