package domain

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkmutant.dev/pkg/zkmutant/internal/adapter"
	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// recordingUI captures workflow output instead of rendering it.
type recordingUI struct {
	titles    []string
	lines     []string
	warns     []string
	errors    []string
	overview  *m.ProjectOverview
	inventory []m.Mutant
	listed    []m.Mutant
	listTotal int
	started   int
	tested    []m.Mutant
	summary   *m.MutationRunReport
	survivors []m.Mutant
	emitted   []any
}

func (r *recordingUI) Title(msg string) { r.titles = append(r.titles, msg) }
func (r *recordingUI) Line(msg string)  { r.lines = append(r.lines, msg) }
func (r *recordingUI) Warn(msg string)  { r.warns = append(r.warns, msg) }
func (r *recordingUI) Error(msg string) { r.errors = append(r.errors, msg) }

func (r *recordingUI) ShowOverview(overview m.ProjectOverview) { r.overview = &overview }
func (r *recordingUI) ShowInventory(mutants []m.Mutant)        { r.inventory = mutants }

func (r *recordingUI) ShowMutants(mutants []m.Mutant, total int) {
	r.listed, r.listTotal = mutants, total
}

func (r *recordingUI) RunStarted(total int)     { r.started = total }
func (r *recordingUI) MutantTested(mu m.Mutant) { r.tested = append(r.tested, mu) }

func (r *recordingUI) ShowSummary(report m.MutationRunReport) { r.summary = &report }

func (r *recordingUI) ShowSurvivors(mutants []m.Mutant, _ map[uint64]string) {
	r.survivors = mutants
}

func (r *recordingUI) EmitJSON(v any) error {
	r.emitted = append(r.emitted, v)
	return nil
}

func (r *recordingUI) Close() {}

// fakeToolchain is the in-memory ToolchainAdapter for workflow tests.
type fakeToolchain struct {
	version string
	err     error
}

func (f *fakeToolchain) Version(context.Context) (string, error) { return f.version, f.err }

func (f *fakeToolchain) CompilerVersion(root m.Path) (string, error) {
	real := adapter.NewLocalToolchainAdapter("")
	return real.CompilerVersion(root)
}

// workflowProjectSource carries exactly two mutants: one == and one <.
const workflowProjectSource = `fn eq(a: u32, b: u32) -> bool {
    a == b
}

fn lt(a: u32, b: u32) -> bool {
    a < b
}
`

func newWorkflowProject(t *testing.T) m.Path {
	t.Helper()

	root := t.TempDir()
	manifest := "[package]\nname = \"fixture\"\ncompiler_version = \"1.0.0\"\n"

	require.NoError(t, os.WriteFile(filepath.Join(root, "Nargo.toml"), []byte(manifest), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.nr"), []byte(workflowProjectSource), 0o600))

	return m.Path(root)
}

func newTestWorkflow(runner *fakeRunner, ui *recordingUI, toolchain adapter.ToolchainAdapter) Workflow {
	fs := adapter.NewLocalSourceFSAdapter()

	if toolchain == nil {
		toolchain = &fakeToolchain{version: "nargo version = 1.0.0"}
	}

	return NewWorkflow(fs, toolchain, adapter.NewReportStore(), ui, NewDiscoverer(fs), NewOrchestrator(fs, runner))
}

func TestWorkflowRun(t *testing.T) {
	root := newWorkflowProject(t)
	before := readTree(t, root)

	ui := &recordingUI{}
	// Baseline passes, first mutant killed, second survives.
	runner := &fakeRunner{steps: []fakeStep{passStep(), failStep(), passStep()}}

	w := newTestWorkflow(runner, ui, nil)

	err := w.Run(context.Background(), RunArgs{Project: root, OutDir: "mutants.out"})
	require.NoError(t, err)

	require.NotNil(t, ui.summary)
	assert.Equal(t, m.RunSummary{Killed: 1, Survived: 1}, ui.summary.Summary)
	assert.Equal(t, 2, ui.summary.Discovered)
	assert.Equal(t, 2, ui.summary.Executed)
	assert.Equal(t, 2, ui.started)
	assert.Len(t, ui.tested, 2)
	require.Len(t, ui.survivors, 1)
	assert.Equal(t, m.OutcomeSurvived, ui.survivors[0].Outcome)

	outDir := filepath.Join(string(root), "mutants.out")
	for _, name := range []string{"mutants.json", "run.json", "outcomes.json", "caught.txt", "missed.txt", "unviable.txt", "log"} {
		_, statErr := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, statErr, name)
	}

	// One diff per executed mutant, named by zero-padded id.
	for _, name := range []string{"000001.diff", "000002.diff"} {
		content, readErr := os.ReadFile(filepath.Join(outDir, "diff", name)) // #nosec G304 - test artifact
		require.NoError(t, readErr, name)
		assert.Contains(t, string(content), "a/src/main.nr")
	}

	// The original tree is untouched, output directory aside.
	after := readTree(t, root)
	for path, content := range before {
		assert.Equal(t, content, after[path], path)
	}
}

func TestWorkflowRunFailOnSurvivors(t *testing.T) {
	root := newWorkflowProject(t)

	ui := &recordingUI{}
	runner := &fakeRunner{steps: []fakeStep{passStep(), passStep(), passStep()}}

	w := newTestWorkflow(runner, ui, nil)

	err := w.Run(context.Background(), RunArgs{Project: root, OutDir: "mutants.out", FailOnSurvivors: true})
	require.ErrorIs(t, err, ErrSurvivorsFound)
}

func TestWorkflowRunLimit(t *testing.T) {
	root := newWorkflowProject(t)

	ui := &recordingUI{}
	runner := &fakeRunner{steps: []fakeStep{passStep(), failStep()}}

	w := newTestWorkflow(runner, ui, nil)

	require.NoError(t, w.Run(context.Background(), RunArgs{Project: root, OutDir: "mutants.out", Limit: 1}))

	// Catalog keeps the full discovery; execution honored the limit.
	content, err := os.ReadFile(filepath.Join(string(root), "mutants.out", "mutants.json")) // #nosec G304 - test artifact
	require.NoError(t, err)

	var catalog []m.Mutant
	require.NoError(t, json.Unmarshal(content, &catalog))
	assert.Len(t, catalog, 2)

	assert.Equal(t, 1, ui.summary.Executed)
	assert.Equal(t, 2, ui.summary.Discovered)
}

func TestWorkflowRunBaselineFailure(t *testing.T) {
	root := newWorkflowProject(t)

	ui := &recordingUI{}

	code := 1
	baselineFail := fakeStep{result: m.TestCommandResult{
		ExitCode: &code,
		Stdout:   "test results\n",
		Stderr:   "constraint failed\n",
	}}
	runner := &fakeRunner{steps: []fakeStep{baselineFail}}

	w := newTestWorkflow(runner, ui, &fakeToolchain{version: "nargo version = 0.9.0"})

	err := w.Run(context.Background(), RunArgs{Project: root, OutDir: "mutants.out"})
	require.ErrorIs(t, err, ErrBaselineFailed)

	// Only the baseline ran; no mutant was ever executed.
	assert.Equal(t, 1, runner.calls)
	assert.Empty(t, ui.tested)

	// The failure is visible and the mismatch hint fired (manifest pins
	// 1.0.0, installed toolchain reports 0.9.0).
	assert.NotEmpty(t, ui.errors)
	assert.Contains(t, ui.lines, "test results")
	assert.Contains(t, ui.warns, "constraint failed")

	foundHint := false
	for _, warn := range ui.warns {
		if strings.Contains(warn, "compiler_version") {
			foundHint = true
		}
	}
	assert.True(t, foundHint, "expected a toolchain mismatch hint")

	// A failure report was still written.
	content, readErr := os.ReadFile(filepath.Join(string(root), "mutants.out", "run.json")) // #nosec G304 - test artifact
	require.NoError(t, readErr)

	var report m.MutationRunReport
	require.NoError(t, json.Unmarshal(content, &report))
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, 2, report.Discovered)
	assert.Empty(t, report.Mutants)
}

func TestWorkflowScan(t *testing.T) {
	root := newWorkflowProject(t)

	ui := &recordingUI{}
	w := newTestWorkflow(&fakeRunner{steps: []fakeStep{passStep()}}, ui, nil)

	require.NoError(t, w.Scan(context.Background(), ScanArgs{Project: root}))

	require.NotNil(t, ui.overview)
	assert.Equal(t, 1, ui.overview.Files)
	assert.Len(t, ui.inventory, 2)
}

func TestWorkflowScanJSON(t *testing.T) {
	root := newWorkflowProject(t)

	ui := &recordingUI{}
	w := newTestWorkflow(&fakeRunner{steps: []fakeStep{passStep()}}, ui, nil)

	require.NoError(t, w.Scan(context.Background(), ScanArgs{Project: root, JSON: true}))

	require.Len(t, ui.emitted, 1)

	report, ok := ui.emitted[0].(m.ScanReport)
	require.True(t, ok)
	assert.Equal(t, 2, report.TotalMutants)
	assert.Equal(t, map[string]int{"condition": 2}, report.ByCategory)
	assert.Equal(t, map[string]int{"src/main.nr": 2}, report.ByFile)
	assert.Nil(t, ui.overview, "human output is skipped in JSON mode")
}

func TestWorkflowList(t *testing.T) {
	root := newWorkflowProject(t)

	ui := &recordingUI{}
	w := newTestWorkflow(&fakeRunner{steps: []fakeStep{passStep()}}, ui, nil)

	require.NoError(t, w.List(context.Background(), ListArgs{Project: root, Limit: 1}))

	assert.Len(t, ui.listed, 1)
	assert.Equal(t, 2, ui.listTotal)
	assert.Equal(t, uint64(1), ui.listed[0].ID)
}

func TestWorkflowView(t *testing.T) {
	root := newWorkflowProject(t)

	runUI := &recordingUI{}
	runner := &fakeRunner{steps: []fakeStep{passStep(), failStep(), passStep()}}
	require.NoError(t, newTestWorkflow(runner, runUI, nil).
		Run(context.Background(), RunArgs{Project: root, OutDir: "mutants.out"}))

	viewUI := &recordingUI{}
	w := newTestWorkflow(&fakeRunner{steps: []fakeStep{passStep()}}, viewUI, nil)

	require.NoError(t, w.View(context.Background(), ViewArgs{Project: root, OutDir: "mutants.out"}))

	require.NotNil(t, viewUI.summary)
	assert.Equal(t, runUI.summary.Summary, viewUI.summary.Summary)
	assert.Len(t, viewUI.survivors, 1)
}

func TestWorkflowViewMissingRun(t *testing.T) {
	ui := &recordingUI{}
	w := newTestWorkflow(&fakeRunner{steps: []fakeStep{passStep()}}, ui, nil)

	err := w.View(context.Background(), ViewArgs{Project: m.Path(t.TempDir()), OutDir: "mutants.out"})
	require.Error(t, err)
}

func TestWorkflowProjectRootRequired(t *testing.T) {
	ui := &recordingUI{}
	w := newTestWorkflow(&fakeRunner{steps: []fakeStep{passStep()}}, ui, nil)

	err := w.Scan(context.Background(), ScanArgs{Project: m.Path(t.TempDir())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nargo.toml")
}
