// Package report renders a run's check outcomes to a machine-readable
// file, for CI systems that want more than the exit code.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crashcheck/crashcheck/internal/core"
)

// RunReport is the persisted record of one verification run.
type RunReport struct {
	StartedAt  time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time          `json:"finished_at" yaml:"finished_at"`
	Duration   string             `json:"duration" yaml:"duration"`
	BinDir     string             `json:"bin_dir" yaml:"bin_dir"`
	Debugger   string             `json:"debugger" yaml:"debugger"`
	Summary    core.Summary       `json:"summary" yaml:"summary"`
	Checks     []core.CheckResult `json:"checks" yaml:"checks"`
}

// Build assembles a report from a finished run.
func Build(startedAt, finishedAt time.Time, binDir, debuggerPath string, results []core.CheckResult) RunReport {
	return RunReport{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt).Round(time.Millisecond).String(),
		BinDir:     binDir,
		Debugger:   debuggerPath,
		Summary:    core.Summarize(results),
		Checks:     results,
	}
}

// Write marshals the report and writes it atomically to path. The format
// follows the file extension: .yaml/.yml for YAML, anything else JSON.
func Write(path string, r RunReport) error {
	data, err := Marshal(path, r)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Marshal renders the report in the format implied by path's extension.
func Marshal(path string, r RunReport) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encoding report: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding report: %w", err)
		}
		return append(data, '\n'), nil
	}
}
