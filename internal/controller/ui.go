// Package controller provides output adapters for displaying mutation
// testing progress and results.
package controller

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// UI is how workflows talk to the user. Implementations decide rendering;
// the engine itself never touches terminal or color state.
type UI interface {
	Title(msg string)
	Line(msg string)
	Warn(msg string)
	Error(msg string)

	// ShowOverview renders the scan-time project metrics.
	ShowOverview(overview m.ProjectOverview)
	// ShowInventory renders discovered mutants grouped by category,
	// operator and file.
	ShowInventory(mutants []m.Mutant)
	// ShowMutants renders the list command output; total is the pre-limit
	// count.
	ShowMutants(mutants []m.Mutant, total int)

	// RunStarted announces that total mutants are about to execute.
	RunStarted(total int)
	// MutantTested streams one classified mutant.
	MutantTested(mu m.Mutant)
	// ShowSummary renders the final run summary.
	ShowSummary(report m.MutationRunReport)
	// ShowSurvivors renders the mutants the test suite missed, with their
	// unified diffs when available.
	ShowSurvivors(mutants []m.Mutant, diffs map[uint64]string)

	// EmitJSON writes a machine-readable value to the machine stream.
	EmitJSON(v any) error

	// Close releases any live rendering. Safe to call more than once.
	Close()
}

// NewUI picks the UI implementation: the live TUI when the terminal
// supports it, plain text otherwise. JSON mode always gets plain text with
// human output moved to stderr so stdout stays machine-readable.
func NewUI(cmd *cobra.Command, useTTY bool, jsonOut bool) UI {
	simple := NewSimpleUI(cmd, jsonOut)
	if jsonOut || !useTTY || os.Getenv("NO_COLOR") != "" || os.Getenv("CI") != "" {
		return simple
	}

	return NewTUI(simple)
}

// IsTTY reports whether w is attached to a character device.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()

	return err == nil && (info.Mode()&os.ModeCharDevice) != 0
}
