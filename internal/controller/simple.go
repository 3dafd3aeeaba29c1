package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// SimpleUI renders plain text through the command's writers.
type SimpleUI struct {
	cmd     *cobra.Command
	jsonOut bool
}

// NewSimpleUI creates a SimpleUI. With jsonOut set, human output moves to
// the error stream so stdout carries only machine output.
func NewSimpleUI(cmd *cobra.Command, jsonOut bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, jsonOut: jsonOut}
}

func (s *SimpleUI) human() io.Writer {
	if s.jsonOut {
		return s.cmd.ErrOrStderr()
	}

	return s.cmd.OutOrStdout()
}

func (s *SimpleUI) printf(format string, args ...any) {
	fmt.Fprintf(s.human(), format, args...)
}

// Title prints a heading line.
func (s *SimpleUI) Title(msg string) {
	s.printf("== %s ==\n", msg)
}

// Line prints a plain line.
func (s *SimpleUI) Line(msg string) {
	s.printf("%s\n", msg)
}

// Warn prints a warning line.
func (s *SimpleUI) Warn(msg string) {
	s.printf("warning: %s\n", msg)
}

// Error prints an error line.
func (s *SimpleUI) Error(msg string) {
	s.printf("error: %s\n", msg)
}

// ShowOverview renders the project metrics table.
func (s *SimpleUI) ShowOverview(overview m.ProjectOverview) {
	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	table.Append([]string{"Source files", fmt.Sprintf("%d", overview.Files)})
	table.Append([]string{"Test files", fmt.Sprintf("%d", overview.TestFiles)})
	table.Append([]string{"Test functions", fmt.Sprintf("%d", overview.TestFunctions)})
	table.Append([]string{"Code lines", fmt.Sprintf("%d", overview.CodeLines)})
	table.Append([]string{"Test lines", fmt.Sprintf("%d", overview.TestLines)})
	table.Render()

	s.printf("\n%s", buffer.String())
}

// ShowInventory renders operator and file breakdowns of the discovered
// mutants.
func (s *SimpleUI) ShowInventory(mutants []m.Mutant) {
	s.printf("\n%d mutation candidates\n", len(mutants))

	if len(mutants) == 0 {
		return
	}

	s.printf("\n%s", renderOperatorTable(mutants))
	s.printf("\n%s", renderFileTable(buildFileCounts(mutants), topFileRows))
}

// ShowMutants renders the list command output.
func (s *SimpleUI) ShowMutants(mutants []m.Mutant, total int) {
	for _, mu := range mutants {
		s.printf("%s\n", mu.Short())
	}

	if total > len(mutants) {
		s.printf("showing first %d of %d mutants\n", len(mutants), total)
	}
}

// RunStarted announces the execution phase.
func (s *SimpleUI) RunStarted(total int) {
	s.printf("testing %d mutants\n", total)
}

// MutantTested prints one progress line per classified mutant. Invalid
// mutants stay quiet here; they surface in the summary and in
// unviable.txt.
func (s *SimpleUI) MutantTested(mu m.Mutant) {
	switch mu.Outcome {
	case m.OutcomeKilled:
		s.printf("mutant %d killed (tests failed under mutation)\n", mu.ID)
	case m.OutcomeSurvived:
		s.printf("mutant %d survived (tests still pass)\n", mu.ID)
	case m.OutcomeInvalid, m.OutcomeNotRun:
	}
}

// ShowSummary renders the outcome totals and the mutation score.
func (s *SimpleUI) ShowSummary(report m.MutationRunReport) {
	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"Outcome", "Count"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	table.Append([]string{"Killed", fmt.Sprintf("%d", report.Summary.Killed)})
	table.Append([]string{"Survived", fmt.Sprintf("%d", report.Summary.Survived)})
	table.Append([]string{"Invalid", fmt.Sprintf("%d", report.Summary.Invalid)})
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", report.Summary.Total())})
	table.Render()

	s.printf("\n%s", buffer.String())

	if report.Summary.Killed+report.Summary.Survived > 0 {
		s.printf("mutation score: %.1f%%\n", report.Summary.Score()*100)
	}
}

// ShowSurvivors lists the mutants the test suite missed, each followed by
// its unified diff when one was rendered.
func (s *SimpleUI) ShowSurvivors(mutants []m.Mutant, diffs map[uint64]string) {
	s.printf("\n%d mutants survived:\n", len(mutants))

	for _, mu := range mutants {
		s.printf("  %s\n", mu.Short())

		if diff, ok := diffs[mu.ID]; ok && diff != "" {
			for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
				s.printf("    %s\n", line)
			}
		}
	}
}

// EmitJSON writes v as indented JSON to stdout.
func (s *SimpleUI) EmitJSON(v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}

	_, err = fmt.Fprintf(s.cmd.OutOrStdout(), "%s\n", content)

	return err
}

// Close is a no-op for SimpleUI.
func (s *SimpleUI) Close() {}

// topFileRows caps the file breakdown table.
const topFileRows = 10

type fileCount struct {
	path  string
	count int
}

func buildFileCounts(mutants []m.Mutant) []fileCount {
	counts := make(map[string]int)
	for _, mu := range mutants {
		counts[string(mu.Span.File)]++
	}

	files := make([]fileCount, 0, len(counts))
	for path, count := range counts {
		files = append(files, fileCount{path: path, count: count})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].count != files[j].count {
			return files[i].count > files[j].count
		}

		return files[i].path < files[j].path
	})

	return files
}

func renderOperatorTable(mutants []m.Mutant) string {
	type operatorCount struct {
		category string
		name     string
		count    int
	}

	counts := make(map[m.MutationOperator]int)
	for _, mu := range mutants {
		counts[mu.Operator]++
	}

	operators := make([]operatorCount, 0, len(counts))
	for op, count := range counts {
		operators = append(operators, operatorCount{category: op.Category.Title(), name: op.Name, count: count})
	}

	sort.Slice(operators, func(i, j int) bool {
		if operators[i].category != operators[j].category {
			return operators[i].category < operators[j].category
		}

		return operators[i].name < operators[j].name
	})

	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"Category", "Operator", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	total := 0

	for _, op := range operators {
		table.Append([]string{op.category, op.name, fmt.Sprintf("%d", op.count)})

		total += op.count
	}

	table.SetFooter([]string{"Total", "", fmt.Sprintf("%d", total)})
	table.Render()

	return buffer.String()
}

func renderFileTable(files []fileCount, limit int) string {
	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"File", "Mutants"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for i, file := range files {
		if i >= limit {
			break
		}

		table.Append([]string{file.path, fmt.Sprintf("%d", file.count)})
	}

	table.Render()

	return buffer.String()
}
