package debugger

import "regexp"

// Transcript is an ordered cursor over one debugger invocation's output.
// Matching consumes: once text up to and including a match is advanced past,
// it is never visible again. Debugger output is unstructured and patterns
// legitimately recur (repeated "Suspend:" lines, one per thread), so without
// consumption an assertion could pass by re-matching the same line instead
// of walking forward through distinct sections. Advance is the single
// primitive; Check and Find on Session are built on it.
type Transcript struct {
	rest string
}

// NewTranscript creates a cursor positioned at the start of output.
func NewTranscript(output string) *Transcript {
	return &Transcript{rest: output}
}

// Advance finds the first match of re in the remaining window. On a match
// it consumes everything through the match end and returns the match text
// and submatches (as from FindStringSubmatch). On a miss the window is left
// untouched and ok is false.
func (t *Transcript) Advance(re *regexp.Regexp) (groups []string, ok bool) {
	loc := re.FindStringSubmatchIndex(t.rest)
	if loc == nil {
		return nil, false
	}
	n := len(loc) / 2
	groups = make([]string, n)
	for i := 0; i < n; i++ {
		start, end := loc[2*i], loc[2*i+1]
		if start >= 0 {
			groups[i] = t.rest[start:end]
		}
	}
	t.rest = t.rest[loc[1]:]
	return groups, true
}

// Remaining returns the unconsumed portion of the output.
func (t *Transcript) Remaining() string {
	return t.rest
}

// Len returns the length of the unconsumed portion.
func (t *Transcript) Len() int {
	return len(t.rest)
}
