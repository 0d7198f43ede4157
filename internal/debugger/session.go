package debugger

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/crashcheck/crashcheck/internal/core"
	"github.com/crashcheck/crashcheck/internal/logging"
)

// MatchFlags modify pattern compilation.
type MatchFlags uint8

const (
	// IgnoreCase makes the pattern case-insensitive.
	IgnoreCase MatchFlags = 1 << iota
)

// Recorder receives ordered check outcomes. Implemented by
// scenario.Recorder; sessions never track pass/fail in process-wide state.
type Recorder interface {
	Pass(description string)
	Fail(description, pattern, remaining string)
}

// InvokeFunc runs the debugger executable and returns its combined output.
// Swappable for tests.
type InvokeFunc func(ctx context.Context, path string, args ...string) ([]byte, error)

// Debugger invokes cdb non-interactively against minidumps.
type Debugger struct {
	// Path is the cdb executable, from discovery or config override.
	Path string
	// Timeout bounds a single invocation. Symbol downloads on a cold
	// cache dominate the first run.
	Timeout time.Duration
	Invoke  InvokeFunc
	Logger  *logging.Logger
}

// Open runs one debugger command against one dump and returns a Session
// over the captured output. The invocation loads the dump, executes the
// command, and quits; a launch failure or non-zero exit aborts the scenario
// step that requested it.
func (d *Debugger) Open(ctx context.Context, dumpPath, command string, rec Recorder) (*Session, error) {
	invoke := d.Invoke
	if invoke == nil {
		invoke = execInvoke
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	args := []string{"-z", dumpPath, "-c", command + ";q"}
	if d.Logger != nil {
		d.Logger.Debug("debugger: invoking", "path", d.Path, "dump", dumpPath, "command", command)
	}

	out, err := invoke(ctx, d.Path, args...)
	if err != nil {
		return nil, core.ErrDebugger(core.CodeToolInvocationFailed,
			fmt.Sprintf("running %q against %s", command, dumpPath)).WithCause(err)
	}

	return &Session{
		transcript: NewTranscript(string(out)),
		rec:        rec,
	}, nil
}

// execInvoke is the production InvokeFunc: combined stdout+stderr capture,
// non-zero exit surfaced as an error alongside whatever output was produced.
func execInvoke(ctx context.Context, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	return cmd.CombinedOutput()
}

// Session supports ordered, consuming assertions over one invocation's
// transcript.
type Session struct {
	transcript *Transcript
	rec        Recorder
}

// NewSessionFromOutput builds a session over pre-captured output. Used by
// tests and by callers that obtain transcripts out of band.
func NewSessionFromOutput(output string, rec Recorder) *Session {
	return &Session{transcript: NewTranscript(output), rec: rec}
}

// Check searches the remaining transcript for pattern. On a match it
// consumes through the match end and records a pass; on a miss it records a
// failure carrying the pattern and the remaining transcript, leaving the
// transcript unchanged so the diagnostic is accurate. Check never
// short-circuits: one failure does not stop subsequent checks.
func (s *Session) Check(pattern, description string, flags MatchFlags) {
	re := compile(pattern, flags)
	if _, ok := s.transcript.Advance(re); ok {
		s.rec.Pass(description)
		return
	}
	s.rec.Fail(description, pattern, s.transcript.Remaining())
}

// Find has Check's search-and-consume behavior but records nothing. It
// returns the match and submatches (index 0 is the whole match) or nil,
// letting later steps branch on values discovered in earlier output, such
// as a suspended thread's index.
func (s *Session) Find(pattern string, flags MatchFlags) []string {
	re := compile(pattern, flags)
	groups, ok := s.transcript.Advance(re)
	if !ok {
		return nil
	}
	return groups
}

// Remaining exposes the unconsumed transcript, mainly for diagnostics.
func (s *Session) Remaining() string {
	return s.transcript.Remaining()
}

func compile(pattern string, flags MatchFlags) *regexp.Regexp {
	if flags&IgnoreCase != 0 {
		pattern = "(?i)" + pattern
	}
	// Patterns are scenario data fixed at build time; a bad one is a bug.
	return regexp.MustCompile(pattern)
}
