package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"zkmutant.dev/pkg/zkmutant/internal/adapter"
	"zkmutant.dev/pkg/zkmutant/internal/controller"
	m "zkmutant.dev/pkg/zkmutant/internal/model"
	"zkmutant.dev/pkg/zkmutant/pkg"
)

// ErrSurvivorsFound reports that a run requested --fail-on-survivors and at
// least one mutant survived. The CLI maps it to its own exit code.
var ErrSurvivorsFound = errors.New("surviving mutants found")

// ErrBaselineFailed reports that the test suite fails on the unmodified
// tree. Mutant outcomes are meaningless in that state, so the run stops
// before the first mutant.
var ErrBaselineFailed = errors.New("baseline test run failed")

// ScanArgs configures the scan workflow.
type ScanArgs struct {
	Project m.Path
	Exclude []string
	JSON    bool
}

// ListArgs configures the list workflow. Limit <= 0 means no limit.
type ListArgs struct {
	Project m.Path
	Exclude []string
	Limit   int
	JSON    bool
}

// RunArgs configures the run workflow. OutDir is resolved against the
// project root when relative.
type RunArgs struct {
	Project         m.Path
	Exclude         []string
	OutDir          m.Path
	Limit           int
	FailOnSurvivors bool
	JSON            bool
}

// ViewArgs configures the view workflow. OutDir is resolved against
// Project when relative.
type ViewArgs struct {
	Project m.Path
	OutDir  m.Path
	JSON    bool
}

// Workflow wires the engine into the CLI commands: scan, list, run, view.
type Workflow interface {
	Scan(ctx context.Context, args ScanArgs) error
	List(ctx context.Context, args ListArgs) error
	Run(ctx context.Context, args RunArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ToolchainAdapter
	adapter.ReportStore
	controller.UI
	Discoverer
	Orchestrator
}

// NewWorkflow creates a Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	toolchain adapter.ToolchainAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
	discoverer Discoverer,
	orchestrator Orchestrator,
) Workflow {
	return &workflow{
		SourceFSAdapter:  fsAdapter,
		ToolchainAdapter: toolchain,
		ReportStore:      reportStore,
		UI:               ui,
		Discoverer:       discoverer,
		Orchestrator:     orchestrator,
	}
}

// Scan shows the project overview and the mutation candidate inventory.
func (w *workflow) Scan(ctx context.Context, args ScanArgs) error {
	root, sources, mutants, err := w.discoverProject(ctx, args.Project, args.Exclude)
	if err != nil {
		return err
	}

	overview := BuildOverview(sources, w.ReadFile)

	if args.JSON {
		return w.EmitJSON(buildScanReport(root, overview, mutants))
	}

	w.Title(fmt.Sprintf("project %s", root))
	w.ShowOverview(overview)
	w.ShowInventory(mutants)

	return nil
}

// List prints every discovered mutant, honoring the limit.
func (w *workflow) List(ctx context.Context, args ListArgs) error {
	_, _, mutants, err := w.discoverProject(ctx, args.Project, args.Exclude)
	if err != nil {
		return err
	}

	limited := limitMutants(mutants, args.Limit)

	if args.JSON {
		return w.EmitJSON(limited)
	}

	w.ShowMutants(limited, len(mutants))

	return nil
}

// Run is the full mutation testing workflow: discover, baseline, execute
// every mutant in its own sandbox, persist the report artifacts and render
// the summary.
func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	root, _, mutants, err := w.discoverProject(ctx, args.Project, args.Exclude)
	if err != nil {
		return err
	}

	outDir := resolveOutDir(root, args.OutDir)

	if err := w.Prepare(outDir); err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	// The full discovery list is persisted before any limit so a partial
	// run still records what it chose from.
	if err := w.SaveMutants(outDir, mutants); err != nil {
		return fmt.Errorf("failed to save mutant catalog: %w", err)
	}

	executed := limitMutants(mutants, args.Limit)

	baseline, err := w.runBaseline(ctx, root, outDir, len(mutants))
	if err != nil {
		return err
	}

	w.RunStarted(len(executed))

	spool, err := pkg.NewSpool[m.Mutant]("zkmutant-run-*.gob")
	if err != nil {
		return fmt.Errorf("failed to create run spool: %w", err)
	}

	defer func() { _ = spool.Close() }()

	_, err = w.RunAll(ctx, root, executed, func(mu m.Mutant) {
		if appendErr := spool.Append(mu); appendErr != nil {
			slog.Warn("failed to spool mutant outcome", "id", mu.ID, "error", appendErr)
		}

		w.MutantTested(mu)
	})
	if err != nil {
		return err
	}

	final := make([]m.Mutant, 0, len(executed))
	if err := spool.Each(func(_ uint64, mu m.Mutant) error {
		final = append(final, mu)
		return nil
	}); err != nil {
		// The in-memory slice still holds every outcome.
		slog.Warn("failed to read back run spool", "error", err)

		final = executed
	}

	report := m.NewRunReport(root, len(mutants), len(final), &baseline, final)

	diffs := w.buildDiffs(root, final)

	if err := w.saveRunArtifacts(outDir, report, diffs); err != nil {
		return err
	}

	w.ShowSummary(report)

	survivors := filterByOutcome(final, m.OutcomeSurvived)
	if len(survivors) > 0 {
		w.ShowSurvivors(survivors, diffs)
	}

	if args.JSON {
		if err := w.EmitJSON(report); err != nil {
			return err
		}
	}

	if args.FailOnSurvivors && report.Summary.Survived > 0 {
		return fmt.Errorf("%w: %d of %d", ErrSurvivorsFound, report.Summary.Survived, report.Summary.Total())
	}

	return nil
}

// View re-renders a previously saved run without executing anything.
func (w *workflow) View(_ context.Context, args ViewArgs) error {
	report, err := w.LoadRun(resolveOutDir(args.Project, args.OutDir))
	if err != nil {
		return fmt.Errorf("failed to load saved run: %w", err)
	}

	if args.JSON {
		return w.EmitJSON(report)
	}

	w.Title(fmt.Sprintf("%s %s run of %s", report.Tool, report.Version, report.ProjectRoot))

	if report.Error != "" {
		w.Error(report.Error)
	}

	w.ShowSummary(report)

	survivors := filterByOutcome(report.Mutants, m.OutcomeSurvived)
	if len(survivors) > 0 {
		w.ShowSurvivors(survivors, nil)
	}

	return nil
}

// discoverProject resolves the project root, lists its sources and runs
// candidate discovery.
func (w *workflow) discoverProject(ctx context.Context, project m.Path, exclude []string) (m.Path, []m.SourceFile, []m.Mutant, error) {
	root, err := w.FindProjectRoot(project)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to locate project root: %w", err)
	}

	sources, err := w.ListSources(root, exclude)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to list sources: %w", err)
	}

	slog.Debug("discovered sources", "root", root, "count", len(sources))

	mutants, err := w.Discover(ctx, sources)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to discover mutants: %w", err)
	}

	return root, sources, mutants, nil
}

// runBaseline gates mutant execution on a passing pristine-tree test run.
// On failure the test output, a toolchain hint and a failure report are
// produced before the error returns.
func (w *workflow) runBaseline(ctx context.Context, root, outDir m.Path, discovered int) (m.BaselineReport, error) {
	w.Line("running baseline tests")

	baseline, result, err := w.Orchestrator.Baseline(ctx, root)
	if err == nil && baseline.Success {
		slog.Debug("baseline passed", "duration_ms", baseline.DurationMS)
		return baseline, nil
	}

	reason := ErrBaselineFailed.Error()
	if err != nil {
		reason = err.Error()
	}

	w.Error("test suite fails on the unmodified project; fix it before mutation testing")
	w.dumpTestOutput(result)
	w.hintToolchainMismatch(ctx, root)

	failed := m.NewFailedRunReport(root, discovered, &baseline, reason)
	if saveErr := w.SaveRun(outDir, failed); saveErr != nil {
		slog.Warn("failed to save failure report", "error", saveErr)
	}

	if saveErr := w.SaveLog(outDir, failed); saveErr != nil {
		slog.Warn("failed to save run log", "error", saveErr)
	}

	if err != nil {
		return baseline, fmt.Errorf("%w: %s", ErrBaselineFailed, err)
	}

	return baseline, ErrBaselineFailed
}

func (w *workflow) dumpTestOutput(result m.TestCommandResult) {
	for _, line := range strings.Split(strings.TrimRight(result.Stdout, "\n"), "\n") {
		if line != "" {
			w.Line(line)
		}
	}

	for _, line := range strings.Split(strings.TrimRight(result.Stderr, "\n"), "\n") {
		if line != "" {
			w.Warn(line)
		}
	}
}

// hintToolchainMismatch warns when the installed nargo disagrees with the
// compiler_version pinned in Nargo.toml, a common cause of baseline
// failures. Both probes are best-effort.
func (w *workflow) hintToolchainMismatch(ctx context.Context, root m.Path) {
	installed, err := w.Version(ctx)
	if err != nil {
		slog.Debug("nargo version probe failed", "error", err)
		return
	}

	pinned, err := w.CompilerVersion(root)
	if err != nil || pinned == "" {
		return
	}

	if !strings.Contains(installed, strings.TrimLeft(pinned, "><=^ ")) {
		w.Warn(fmt.Sprintf("installed toolchain %q may not match compiler_version %q in Nargo.toml", installed, pinned))
	}
}

func (w *workflow) saveRunArtifacts(outDir m.Path, report m.MutationRunReport, diffs map[uint64]string) error {
	if err := w.SaveRun(outDir, report); err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}

	if err := w.SaveOutcomes(outDir, report.Mutants); err != nil {
		return fmt.Errorf("failed to save outcomes: %w", err)
	}

	if err := w.SaveOutcomeLists(outDir, report.Mutants); err != nil {
		return fmt.Errorf("failed to save outcome lists: %w", err)
	}

	if err := w.SaveDiffs(outDir, diffs); err != nil {
		return fmt.Errorf("failed to save diffs: %w", err)
	}

	if err := w.SaveLog(outDir, report); err != nil {
		return fmt.Errorf("failed to save run log: %w", err)
	}

	return nil
}

// buildDiffs renders one unified diff per executed mutant against the
// original tree. A file that cannot be read or patched just loses its
// diff; the run report is already complete by this point.
func (w *workflow) buildDiffs(root m.Path, mutants []m.Mutant) map[uint64]string {
	diffs := make(map[uint64]string, len(mutants))
	contents := make(map[m.Path][]byte)

	for _, mu := range mutants {
		if mu.Outcome == m.OutcomeNotRun {
			continue
		}

		content, ok := contents[mu.Span.File]
		if !ok {
			loaded, err := w.ReadFile(w.JoinPath(string(root), filepath.FromSlash(string(mu.Span.File))))
			if err != nil {
				slog.Warn("skipping diff for unreadable file", "file", mu.Span.File, "error", err)
				continue
			}

			content = loaded
			contents[mu.Span.File] = loaded
		}

		mutated, err := ApplyCheckedPatch(content, mu.Span, mu.OriginalSnippet, mu.MutatedSnippet)
		if err != nil {
			slog.Warn("skipping diff for drifted mutant", "id", mu.ID, "error", err)
			continue
		}

		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(content)),
			B:        difflib.SplitLines(string(mutated)),
			FromFile: "a/" + string(mu.Span.File),
			ToFile:   "b/" + string(mu.Span.File),
			Context:  3,
		})
		if err != nil {
			slog.Warn("failed to render diff", "id", mu.ID, "error", err)
			continue
		}

		diffs[mu.ID] = text
	}

	return diffs
}

func buildScanReport(root m.Path, overview m.ProjectOverview, mutants []m.Mutant) m.ScanReport {
	report := m.ScanReport{
		ProjectRoot:  string(root),
		Overview:     overview,
		TotalMutants: len(mutants),
		ByCategory:   make(map[string]int),
		ByOperator:   make(map[string]int),
		ByFile:       make(map[string]int),
	}

	for _, mu := range mutants {
		report.ByCategory[string(mu.Operator.Category)]++
		report.ByOperator[mu.Operator.Name]++
		report.ByFile[string(mu.Span.File)]++
	}

	return report
}

// limitMutants returns an independent slice so execution never aliases the
// pre-limit catalog.
func limitMutants(mutants []m.Mutant, limit int) []m.Mutant {
	n := len(mutants)
	if limit > 0 && limit < n {
		n = limit
	}

	limited := make([]m.Mutant, n)
	copy(limited, mutants[:n])

	return limited
}

func filterByOutcome(mutants []m.Mutant, outcome m.MutantOutcome) []m.Mutant {
	var matched []m.Mutant

	for _, mu := range mutants {
		if mu.Outcome == outcome {
			matched = append(matched, mu)
		}
	}

	return matched
}

func resolveOutDir(base, out m.Path) m.Path {
	if filepath.IsAbs(string(out)) {
		return out
	}

	return m.Path(filepath.Join(string(base), string(out)))
}
