package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_PassRendersOkLine(t *testing.T) {
	var out, errOut strings.Builder
	r := NewRecorder(&out, &errOut)

	r.Pass("captured exception")

	assert.Equal(t, "ok - captured exception\n", out.String())
	assert.Empty(t, errOut.String())
	assert.False(t, r.Failed())
}

func TestRecorder_FailRendersDelimitedBlock(t *testing.T) {
	var out, errOut strings.Builder
	r := NewRecorder(&out, &errOut)

	r.Fail("found the PEB", `PEB at`, "0:000> nothing here\nquit:")

	assert.Empty(t, out.String())
	got := errOut.String()
	assert.Contains(t, got, strings.Repeat("-", 80))
	assert.Contains(t, got, "FAILED - found the PEB\n")
	assert.Contains(t, got, "did not match:\n  PEB at\n")
	assert.Contains(t, got, "remaining output was:\n  0:000> nothing here\nquit:\n")
	assert.True(t, r.Failed())
}

func TestRecorder_ResultsPreserveIssueOrder(t *testing.T) {
	r := NewRecorder(&strings.Builder{}, &strings.Builder{})

	r.Pass("first")
	r.Fail("second", "x", "y")
	r.Pass("third")

	results := r.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Description)
	assert.True(t, results[0].OK)
	assert.Equal(t, "second", results[1].Description)
	assert.False(t, results[1].OK)
	assert.Equal(t, "x", results[1].Pattern)
	assert.Equal(t, "y", results[1].Remaining)
	assert.Equal(t, "third", results[2].Description)
}

func TestRecorder_LongRemainingTruncatedInResults(t *testing.T) {
	var errOut strings.Builder
	r := NewRecorder(&strings.Builder{}, &errOut)

	long := strings.Repeat("z", maxRemainingExcerpt+100)
	r.Fail("desc", "pat", long)

	results := r.Results()
	require.Len(t, results, 1)
	assert.Len(t, results[0].Remaining, maxRemainingExcerpt+len("... [truncated]"))
	// The rendered block still carries the full remainder.
	assert.Contains(t, errOut.String(), long)
}

func TestRecorder_FailedFalseWhenEmpty(t *testing.T) {
	r := NewRecorder(&strings.Builder{}, &strings.Builder{})
	assert.False(t, r.Failed())
	assert.Empty(t, r.Results())
}
