package scenario

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/crashcheck/crashcheck/internal/core"
)

// maxRemainingExcerpt bounds the transcript excerpt stored per failed
// check. The full remainder still goes to the failure stream.
const maxRemainingExcerpt = 4096

// Recorder accumulates check outcomes in issue order and renders them as
// they arrive: one line per pass, a delimited block per failure. It
// replaces a process-wide failure flag; the driver reads Failed() once at
// the end.
type Recorder struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	results []core.CheckResult
}

// NewRecorder creates a recorder writing passes to out and failure blocks
// to errOut.
func NewRecorder(out, errOut io.Writer) *Recorder {
	return &Recorder{out: out, errOut: errOut}
}

// Pass records a successful check.
func (r *Recorder) Pass(description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, core.CheckResult{
		Description: description,
		OK:          true,
	})
	fmt.Fprintf(r.out, "ok - %s\n", description)
}

// Fail records a failed check with the pattern that did not match and the
// transcript remainder at the time, for diagnosis.
func (r *Recorder) Fail(description, pattern, remaining string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, core.CheckResult{
		Description: description,
		Pattern:     pattern,
		Remaining:   truncate(remaining, maxRemainingExcerpt),
	})

	rule := strings.Repeat("-", 80)
	fmt.Fprintln(r.errOut, rule)
	fmt.Fprintf(r.errOut, "FAILED - %s\n", description)
	fmt.Fprintln(r.errOut, rule)
	fmt.Fprintf(r.errOut, "did not match:\n  %s\n", pattern)
	fmt.Fprintln(r.errOut, rule)
	fmt.Fprintf(r.errOut, "remaining output was:\n  %s\n", remaining)
	fmt.Fprintln(r.errOut, rule)
}

// Failed reports whether any check failed.
func (r *Recorder) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if !res.OK {
			return true
		}
	}
	return false
}

// Results returns a snapshot of the recorded outcomes, in issue order.
func (r *Recorder) Results() []core.CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.CheckResult, len(r.results))
	copy(out, r.results)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... [truncated]"
}
