package core

// CheckResult records the outcome of one ordered transcript check.
type CheckResult struct {
	Description string `json:"description" yaml:"description"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	OK          bool   `json:"ok" yaml:"ok"`
	// Remaining holds an excerpt of the unconsumed transcript at the time
	// of a failed check. Empty for passing checks.
	Remaining string `json:"remaining,omitempty" yaml:"remaining,omitempty"`
}

// Summary aggregates check outcomes.
type Summary struct {
	Passed int `json:"passed" yaml:"passed"`
	Failed int `json:"failed" yaml:"failed"`
}

// Summarize counts passing and failing checks.
func Summarize(results []CheckResult) Summary {
	var s Summary
	for _, r := range results {
		if r.OK {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
