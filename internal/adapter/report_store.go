package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// Report artifact names inside the output directory.
const (
	mutantsFileName  = "mutants.json"
	runFileName      = "run.json"
	outcomesFileName = "outcomes.json"
	caughtFileName   = "caught.txt"
	missedFileName   = "missed.txt"
	unviableFileName = "unviable.txt"
	diffDirName      = "diff"
	logFileName      = "log"
	rotatedSuffix    = ".old"
)

// ReportStore persists and reloads the artifacts of a mutation run.
type ReportStore interface {
	// Prepare rotates a pre-existing output directory to <dir>.old and
	// creates a fresh one.
	Prepare(dir m.Path) error

	// SaveMutants writes mutants.json, the full pre-limit discovery list.
	SaveMutants(dir m.Path, mutants []m.Mutant) error

	// SaveRun writes run.json, the complete machine-readable run record.
	SaveRun(dir m.Path, report m.MutationRunReport) error

	// LoadRun reads a run.json written by SaveRun.
	LoadRun(dir m.Path) (m.MutationRunReport, error)

	// SaveOutcomes writes outcomes.json, compact id-sorted outcome entries.
	SaveOutcomes(dir m.Path, mutants []m.Mutant) error

	// SaveOutcomeLists writes caught.txt, missed.txt and unviable.txt. All
	// three files exist after the call even when empty.
	SaveOutcomeLists(dir m.Path, mutants []m.Mutant) error

	// SaveDiffs writes one unified diff per executed mutant under diff/,
	// named by zero-padded mutant id.
	SaveDiffs(dir m.Path, diffs map[uint64]string) error

	// SaveLog writes the stable, timestamp-free run log.
	SaveLog(dir m.Path, report m.MutationRunReport) error
}

// FileReportStore is the disk-backed ReportStore implementation.
type FileReportStore struct{}

// NewReportStore constructs a FileReportStore.
func NewReportStore() *FileReportStore {
	return &FileReportStore{}
}

// Prepare rotates dir to dir.old when it exists and recreates it.
func (s *FileReportStore) Prepare(dir m.Path) error {
	dirStr := string(dir)

	if _, err := os.Stat(dirStr); err == nil {
		rotated := dirStr + rotatedSuffix
		if err := os.RemoveAll(rotated); err != nil {
			return fmt.Errorf("failed to remove %s: %w", rotated, err)
		}

		if err := os.Rename(dirStr, rotated); err != nil {
			return fmt.Errorf("failed to rotate %s: %w", dirStr, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", dirStr, err)
	}

	if err := os.MkdirAll(dirStr, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dirStr, err)
	}

	return nil
}

// SaveMutants writes the discovery list as indented JSON.
func (s *FileReportStore) SaveMutants(dir m.Path, mutants []m.Mutant) error {
	if mutants == nil {
		mutants = []m.Mutant{}
	}

	return s.writeJSON(filepath.Join(string(dir), mutantsFileName), mutants)
}

// SaveRun writes the full run report as indented JSON.
func (s *FileReportStore) SaveRun(dir m.Path, report m.MutationRunReport) error {
	return s.writeJSON(filepath.Join(string(dir), runFileName), report)
}

// LoadRun reads a run report back from disk.
func (s *FileReportStore) LoadRun(dir m.Path) (m.MutationRunReport, error) {
	var report m.MutationRunReport

	path := filepath.Join(string(dir), runFileName)

	content, err := os.ReadFile(path) // #nosec G304 - path is derived from the report directory
	if err != nil {
		return report, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(content, &report); err != nil {
		return report, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return report, nil
}

// outcomeEntry is the compact per-mutant record inside outcomes.json.
type outcomeEntry struct {
	ID         uint64          `json:"id"`
	Outcome    m.MutantOutcome `json:"outcome"`
	DurationMS *uint64         `json:"duration_ms,omitempty"`
}

// SaveOutcomes writes the compact id-sorted outcome entries.
func (s *FileReportStore) SaveOutcomes(dir m.Path, mutants []m.Mutant) error {
	entries := make([]outcomeEntry, 0, len(mutants))
	for _, mu := range mutants {
		entries = append(entries, outcomeEntry{ID: mu.ID, Outcome: mu.Outcome, DurationMS: mu.DurationMS})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return s.writeJSON(filepath.Join(string(dir), outcomesFileName), entries)
}

// SaveOutcomeLists writes the three one-line-per-mutant outcome files.
func (s *FileReportStore) SaveOutcomeLists(dir m.Path, mutants []m.Mutant) error {
	lists := map[string][]string{
		caughtFileName:   {},
		missedFileName:   {},
		unviableFileName: {},
	}

	for _, mu := range mutants {
		switch mu.Outcome {
		case m.OutcomeKilled:
			lists[caughtFileName] = append(lists[caughtFileName], mu.Short())
		case m.OutcomeSurvived:
			lists[missedFileName] = append(lists[missedFileName], mu.Short())
		case m.OutcomeInvalid:
			lists[unviableFileName] = append(lists[unviableFileName], mu.Short())
		case m.OutcomeNotRun:
		}
	}

	for name, lines := range lists {
		text := ""
		if len(lines) > 0 {
			text = strings.Join(lines, "\n") + "\n"
		}

		if err := os.WriteFile(filepath.Join(string(dir), name), []byte(text), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return nil
}

// SaveDiffs writes per-mutant unified diffs under diff/.
func (s *FileReportStore) SaveDiffs(dir m.Path, diffs map[uint64]string) error {
	diffDir := filepath.Join(string(dir), diffDirName)
	if err := os.MkdirAll(diffDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", diffDir, err)
	}

	for id, text := range diffs {
		name := fmt.Sprintf("%06d.diff", id)
		if err := os.WriteFile(filepath.Join(diffDir, name), []byte(text), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return nil
}

// SaveLog writes the deterministic run log. No timestamps: two runs over
// the same tree with the same outcomes produce identical files.
func (s *FileReportStore) SaveLog(dir m.Path, report m.MutationRunReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", report.Tool, report.Version)
	fmt.Fprintf(&b, "project %s\n", report.ProjectRoot)
	fmt.Fprintf(&b, "discovered %d\n", report.Discovered)
	fmt.Fprintf(&b, "executed %d\n", report.Executed)

	if report.Baseline != nil {
		status := "failed"
		if report.Baseline.Success {
			status = "ok"
		}

		fmt.Fprintf(&b, "baseline %s\n", status)
	}

	for _, mu := range report.Mutants {
		fmt.Fprintf(&b, "%s %s\n", mu.Outcome, mu.Short())
	}

	fmt.Fprintf(&b, "summary killed=%d survived=%d invalid=%d\n",
		report.Summary.Killed, report.Summary.Survived, report.Summary.Invalid)

	if report.Error != "" {
		fmt.Fprintf(&b, "error %s\n", report.Error)
	}

	if err := os.WriteFile(filepath.Join(string(dir), logFileName), []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", logFileName, err)
	}

	return nil
}

func (s *FileReportStore) writeJSON(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	content = append(content, '\n')

	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	return nil
}
