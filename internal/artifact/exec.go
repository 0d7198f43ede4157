package artifact

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/crashcheck/crashcheck/internal/core"
	"github.com/crashcheck/crashcheck/internal/logging"
)

// ExecRunner spawns real processes. It implements core.CommandRunner.
type ExecRunner struct {
	Logger *logging.Logger
}

// Run spawns the program and waits for it to exit. Targets are expected to
// crash, so a non-zero exit is reported through exitCode rather than err.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.Logger.Debug("exec: target output", "program", name, "output", string(out))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}

// Start spawns the program detached and returns a handle. The process's
// stdout and stderr are drained to the logger while it runs so capture
// server diagnostics surface in the harness log.
func (r *ExecRunner) Start(ctx context.Context, name string, args ...string) (core.Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, err
	}

	g := &errgroup.Group{}
	drain := func(pipe io.Reader, stream string) func() error {
		return func() error {
			scanner := bufio.NewScanner(pipe)
			for scanner.Scan() {
				r.Logger.Debug("handler: "+stream, "program", name, "line", scanner.Text())
			}
			// Pipe closes abruptly when the process is killed.
			return nil
		}
	}
	g.Go(drain(stdout, "stdout"))
	g.Go(drain(stderr, "stderr"))

	return &managedProcess{cmd: cmd, drainers: g}, nil
}

// managedProcess wraps a spawned background process with its output
// drainers so Kill reaps everything.
type managedProcess struct {
	cmd      *exec.Cmd
	drainers *errgroup.Group
	killed   bool
}

// Kill terminates the process, waits for it to be reaped, and joins the
// drain goroutines. Idempotent.
func (p *managedProcess) Kill() error {
	if p.killed {
		return nil
	}
	p.killed = true

	killErr := p.cmd.Process.Kill()
	// Wait's error is expected after a kill; the drainers finish when the
	// pipes close.
	_ = p.cmd.Wait()
	_ = p.drainers.Wait()
	return killErr
}

func (p *managedProcess) PID() int {
	return p.cmd.Process.Pid
}
