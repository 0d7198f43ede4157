package artifact

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/crashcheck/crashcheck/internal/core"
	"github.com/crashcheck/crashcheck/internal/fsutil"
	"github.com/crashcheck/crashcheck/internal/logging"
)

// pathMarker prefixes the report-path field in the database tool's listing.
// The listing is human-readable; scanning for this marker is the narrow
// seam to swap for a structured output mode if the tool ever grows one.
const pathMarker = "Path:"

// Spec describes one dump-producing run.
type Spec struct {
	// Target is the instrumented program's executable name within the
	// binary directory.
	Target string
	// PipeName selects the startup mode. Non-empty: the producer starts
	// the capture server itself and hands the target this identifier.
	// Empty: the target starts its own capture server and is handed the
	// server executable path and database directory instead.
	PipeName string
	// ExtraArgs are appended to the target's argument list.
	ExtraArgs []string
}

// Producer runs target programs under crash-capture instrumentation and
// resolves the minidump each run leaves behind.
type Producer struct {
	BinDir   string
	Dirs     *fsutil.TempDirRegistry
	Database core.DatabaseUtil
	Runner   core.CommandRunner
	Logger   *logging.Logger

	// ReadinessTimeout bounds the wait for the capture server's signal.
	// The upstream harness waited forever; a handler that fails to start
	// would hang the whole run.
	ReadinessTimeout time.Duration
	// PollInterval is the readiness re-check interval.
	PollInterval time.Duration
}

// Produce runs spec's target to completion under a fresh report database
// and returns the path of the dump the capture server wrote. The target's
// exit code is ignored: targets crash or terminate abnormally by design.
// An externally started capture server is always terminated before return.
func (p *Producer) Produce(ctx context.Context, spec Spec) (string, error) {
	database, err := p.Dirs.Acquire()
	if err != nil {
		return "", core.ErrArtifact(core.CodeDatabaseInitFailed, "acquiring database directory").WithCause(err)
	}

	if err := p.Database.Create(ctx, database); err != nil {
		return "", core.ErrArtifact(core.CodeDatabaseInitFailed, "could not initialize report database").WithCause(err)
	}

	targetPath := filepath.Join(p.BinDir, spec.Target)

	if spec.PipeName != "" {
		handler, err := p.Runner.Start(ctx, p.handlerPath(),
			"--pipe-name="+spec.PipeName,
			"--database="+database,
		)
		if err != nil {
			return "", core.ErrArtifact(core.CodeSpawnFailed, "starting capture server").WithCause(err)
		}
		// Scoped ownership: the handler dies on every exit path below.
		defer func() {
			if killErr := handler.Kill(); killErr != nil {
				p.Logger.Warn("artifact: killing capture server", "pid", handler.PID(), "error", killErr)
			}
		}()

		p.Logger.Info("artifact: waiting for capture server", "pipe", spec.PipeName, "pid", handler.PID())
		if err := waitForPath(ctx, spec.PipeName, p.PollInterval, p.ReadinessTimeout); err != nil {
			return "", err
		}

		args := append([]string{spec.PipeName}, spec.ExtraArgs...)
		exitCode, err := p.Runner.Run(ctx, targetPath, args...)
		if err != nil {
			return "", core.ErrArtifact(core.CodeSpawnFailed, "running "+spec.Target).WithCause(err)
		}
		p.Logger.Info("artifact: target exited", "target", spec.Target, "exit_code", exitCode)
	} else {
		args := append([]string{p.handlerPath(), database}, spec.ExtraArgs...)
		exitCode, err := p.Runner.Run(ctx, targetPath, args...)
		if err != nil {
			return "", core.ErrArtifact(core.CodeSpawnFailed, "running "+spec.Target).WithCause(err)
		}
		p.Logger.Info("artifact: target exited", "target", spec.Target, "exit_code", exitCode)
	}

	listing, err := p.Database.CompletedReports(ctx, database)
	if err != nil {
		return "", core.ErrArtifact(core.CodeNoArtifactFound, "listing completed reports").WithCause(err)
	}

	dump := scanReportListing(listing)
	if dump == "" {
		return "", core.ErrArtifact(core.CodeNoArtifactFound,
			spec.Target+" produced no completed report")
	}
	p.Logger.Info("artifact: dump produced", "target", spec.Target, "dump", dump)
	return dump, nil
}

// scanReportListing extracts the first report path from the database tool's
// human-readable listing: the first line whose trimmed form starts with
// "Path:", remainder trimmed.
func scanReportListing(listing string) string {
	for _, line := range strings.Split(listing, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, pathMarker); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func (p *Producer) handlerPath() string {
	return filepath.Join(p.BinDir, HandlerExecutable())
}
