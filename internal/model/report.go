package model

import "time"

// Tool identity stamped into every run report.
const (
	ToolName    = "zkmutant"
	ToolVersion = "0.4.0"
)

// TestCommandResult captures one invocation of the external test command.
// ExitCode is nil when the process was terminated by a signal (forced
// timeout included) or never reported a status.
type TestCommandResult struct {
	ExitCode *int
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// BaselineReport records the pristine-tree test run that gates mutant
// execution. It is produced once per run and consumed read-only.
type BaselineReport struct {
	Success    bool   `json:"success"`
	ExitCode   *int   `json:"exit_code,omitempty"`
	DurationMS uint64 `json:"duration_ms"`
}

// NewBaselineReport folds a test command result into a baseline record.
func NewBaselineReport(result TestCommandResult) BaselineReport {
	return BaselineReport{
		Success:    result.Success,
		ExitCode:   result.ExitCode,
		DurationMS: uint64(result.Duration.Milliseconds()),
	}
}

// RunSummary counts executed mutants by outcome. Mutants that never ran
// contribute to no bucket.
type RunSummary struct {
	Killed   int `json:"killed"`
	Survived int `json:"survived"`
	Invalid  int `json:"invalid"`
}

// Add counts one outcome into the summary.
func (s *RunSummary) Add(outcome MutantOutcome) {
	switch outcome {
	case OutcomeKilled:
		s.Killed++
	case OutcomeSurvived:
		s.Survived++
	case OutcomeInvalid:
		s.Invalid++
	case OutcomeNotRun:
	}
}

// Total returns the number of mutants counted in the summary.
func (s RunSummary) Total() int {
	return s.Killed + s.Survived + s.Invalid
}

// Score returns the mutation score: killed over killed plus survived.
// Invalid mutants say nothing about test quality and are left out.
func (s RunSummary) Score() float64 {
	scored := s.Killed + s.Survived
	if scored == 0 {
		return 0
	}

	return float64(s.Killed) / float64(scored)
}

// Summarize folds a final mutant list into a summary.
func Summarize(mutants []Mutant) RunSummary {
	var summary RunSummary
	for _, mu := range mutants {
		summary.Add(mu.Outcome)
	}

	return summary
}

// MutationRunReport is the machine-readable record of one full run.
type MutationRunReport struct {
	Tool        string          `json:"tool"`
	Version     string          `json:"version"`
	ProjectRoot string          `json:"project_root"`
	Discovered  int             `json:"discovered"`
	Executed    int             `json:"executed"`
	Baseline    *BaselineReport `json:"baseline,omitempty"`
	Summary     RunSummary      `json:"summary"`
	Mutants     []Mutant        `json:"mutants"`
	Error       string          `json:"error,omitempty"`
}

// NewRunReport builds the report for a run that reached execution.
func NewRunReport(root Path, discovered, executed int, baseline *BaselineReport, mutants []Mutant) MutationRunReport {
	return MutationRunReport{
		Tool:        ToolName,
		Version:     ToolVersion,
		ProjectRoot: string(root),
		Discovered:  discovered,
		Executed:    executed,
		Baseline:    baseline,
		Summary:     Summarize(mutants),
		Mutants:     mutants,
	}
}

// NewFailedRunReport builds the report for a run aborted before execution,
// typically a failed baseline.
func NewFailedRunReport(root Path, discovered int, baseline *BaselineReport, reason string) MutationRunReport {
	return MutationRunReport{
		Tool:        ToolName,
		Version:     ToolVersion,
		ProjectRoot: string(root),
		Discovered:  discovered,
		Baseline:    baseline,
		Mutants:     []Mutant{},
		Error:       reason,
	}
}

// ProjectOverview holds the scan-time metrics of a Noir project.
type ProjectOverview struct {
	Files         int `json:"files"`
	TestFiles     int `json:"test_files"`
	TestFunctions int `json:"test_functions"`
	CodeLines     int `json:"code_lines"`
	TestLines     int `json:"test_lines"`
}

// ScanReport is the machine-readable output of the scan command.
type ScanReport struct {
	ProjectRoot  string          `json:"project_root"`
	Overview     ProjectOverview `json:"overview"`
	TotalMutants int             `json:"total_mutants"`
	ByCategory   map[string]int  `json:"by_category"`
	ByOperator   map[string]int  `json:"by_operator"`
	ByFile       map[string]int  `json:"by_file"`
}
