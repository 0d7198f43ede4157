package scenario

import (
	"context"

	"github.com/crashcheck/crashcheck/internal/debugger"
	"github.com/crashcheck/crashcheck/internal/logging"
)

// IgnoreCase is re-exported so scenario bodies read naturally.
const IgnoreCase = debugger.IgnoreCase

// Session is the slice of debugger.Session the runner needs; the
// indirection lets tests drive scenarios against canned transcripts.
type Session interface {
	Check(pattern, description string, flags debugger.MatchFlags)
	Find(pattern string, flags debugger.MatchFlags) []string
	Remaining() string
}

// OpenFunc runs one debugger command against one dump and returns a
// session over its output.
type OpenFunc func(ctx context.Context, dumpPath, command string) (Session, error)

// Dumps holds the artifacts the scenario suite runs against. Z7 is empty
// when the bin dir is 64-bit (the /Z7 loader is 32-bit only).
type Dumps struct {
	Crashy           string
	StartHandler     string
	SelfDestroyed    string
	Z7               string
	Other            string
	OtherNoException string
}

// Runner executes the fixed scenario suite. Scenarios are independent: a
// failure in one, including a debugger invocation failure, records into
// the Recorder and the suite continues, preserving maximal diagnostic
// coverage per run.
type Runner struct {
	Open     OpenFunc
	Recorder *Recorder
	Logger   *logging.Logger
	// Skip excludes scenarios by name, on top of the ones disabled by
	// default.
	Skip map[string]bool
	// PipeName is the readiness-signal identifier the crashy dump was
	// produced with; one scenario asserts it appears in the captured
	// command line.
	PipeName string
}

// Run executes every enabled scenario against dumps, in order.
func (r *Runner) Run(ctx context.Context, dumps Dumps) {
	for _, sc := range suite() {
		if !sc.enabled || r.Skip[sc.name] {
			r.Logger.Debug("scenario: skipped", "scenario", sc.name)
			continue
		}
		r.Logger.Info("scenario: running", "scenario", sc.name)
		sc.run(ctx, r, dumps)
	}
}

// open starts a debugger session for one scenario step. On invocation
// failure it records a failed check and returns nil; the scenario aborts
// but the suite continues.
func (r *Runner) open(ctx context.Context, scenarioName, dumpPath, command string) Session {
	s, err := r.Open(ctx, dumpPath, command)
	if err != nil {
		r.Logger.Error("scenario: debugger invocation failed",
			"scenario", scenarioName, "command", command, "error", err)
		r.Recorder.Fail(scenarioName+": debugger invocation for "+command, "", err.Error())
		return nil
	}
	return s
}
