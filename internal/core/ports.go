package core

import "context"

// DatabaseUtil wraps the crash-report database management tool. The tool's
// human-readable report listing is the only way to discover produced dumps,
// so the raw listing is surfaced for scanning rather than a parsed form.
type DatabaseUtil interface {
	// Create initializes a fresh report database in dir.
	Create(ctx context.Context, dir string) error
	// CompletedReports returns the tool's full stdout for the completed
	// report listing with all report detail.
	CompletedReports(ctx context.Context, dir string) (string, error)
}

// Process is a handle to a spawned background process.
type Process interface {
	// Kill terminates the process and reaps it. Safe to call on every
	// exit path of the owning operation.
	Kill() error
	PID() int
}

// CommandRunner spawns external processes: target programs that run to
// completion and a capture server that runs in the background.
type CommandRunner interface {
	// Run spawns the program and waits for it to exit. Target programs
	// crash or terminate abnormally by design, so a non-zero exit is
	// reported via exitCode, not err. err is reserved for spawn failures.
	Run(ctx context.Context, name string, args ...string) (exitCode int, err error)
	// Start spawns the program detached and returns a handle to it.
	Start(ctx context.Context, name string, args ...string) (Process, error)
}
