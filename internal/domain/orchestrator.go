package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"zkmutant.dev/pkg/zkmutant/internal/adapter"
	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// sandboxPattern names the temp directories mutants are tested in.
const sandboxPattern = "zkmutant-mutation-*"

// Orchestrator executes mutants in isolated copies of the project tree.
type Orchestrator interface {
	// Baseline runs the test suite against the pristine tree. Mutant
	// execution is pointless when this fails; callers gate on it.
	Baseline(ctx context.Context, root m.Path) (m.BaselineReport, m.TestCommandResult, error)

	// TestMutant runs one mutant in a fresh sandbox and writes its
	// outcome: invalid when any preparation step or the command start
	// fails, survived when the suite passes, killed when it fails. The
	// returned error carries the step failure for logging; the caller's
	// loop continues either way.
	TestMutant(ctx context.Context, root m.Path, mu *m.Mutant) error

	// RunAll executes mutants strictly sequentially in slice order and
	// folds the outcomes into a summary. tested, when non-nil, is invoked
	// after each classification. A failing mutant never stops the loop;
	// only context cancellation does.
	RunAll(ctx context.Context, root m.Path, mutants []m.Mutant, tested func(m.Mutant)) (m.RunSummary, error)
}

type orchestrator struct {
	fs     adapter.SourceFSAdapter
	runner adapter.TestRunnerAdapter
}

// NewOrchestrator creates an Orchestrator with the provided dependencies.
func NewOrchestrator(fs adapter.SourceFSAdapter, runner adapter.TestRunnerAdapter) Orchestrator {
	return &orchestrator{fs: fs, runner: runner}
}

// Baseline runs the suite once against root.
func (o *orchestrator) Baseline(ctx context.Context, root m.Path) (m.BaselineReport, m.TestCommandResult, error) {
	result, err := o.runner.RunTests(ctx, root)
	if err != nil {
		return m.BaselineReport{}, result, fmt.Errorf("failed to run baseline tests: %w", err)
	}

	return m.NewBaselineReport(result), result, nil
}

// TestMutant copies the tree, applies the checked patch and runs the
// suite. The sandbox is removed on every path.
func (o *orchestrator) TestMutant(ctx context.Context, root m.Path, mu *m.Mutant) error {
	sandbox, err := o.prepareSandbox(root)
	if err != nil {
		mu.Outcome = m.OutcomeInvalid
		return fmt.Errorf("failed to prepare sandbox for mutant %d: %w", mu.ID, err)
	}

	defer o.cleanupSandbox(sandbox)

	slog.Debug("testing mutant", "id", mu.ID, "sandbox", sandbox)

	if err := o.applyToSandbox(sandbox, mu); err != nil {
		mu.Outcome = m.OutcomeInvalid
		return fmt.Errorf("failed to apply mutant %d: %w", mu.ID, err)
	}

	result, err := o.runner.RunTests(ctx, sandbox)
	if err != nil {
		mu.Outcome = m.OutcomeInvalid
		return fmt.Errorf("failed to test mutant %d: %w", mu.ID, err)
	}

	if result.Success {
		mu.Outcome = m.OutcomeSurvived
		return nil
	}

	mu.Outcome = m.OutcomeKilled
	durationMS := uint64(result.Duration.Milliseconds())
	mu.DurationMS = &durationMS

	return nil
}

// RunAll processes one mutant completely before the next begins. The
// original tree is only ever read; every write happens inside a sandbox.
func (o *orchestrator) RunAll(ctx context.Context, root m.Path, mutants []m.Mutant, tested func(m.Mutant)) (m.RunSummary, error) {
	var summary m.RunSummary

	for i := range mutants {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("mutant execution canceled: %w", err)
		}

		if err := o.TestMutant(ctx, root, &mutants[i]); err != nil {
			slog.Warn("mutant could not be tested", "id", mutants[i].ID, "error", err)
		}

		summary.Add(mutants[i].Outcome)

		if tested != nil {
			tested(mutants[i])
		}
	}

	return summary, nil
}

func (o *orchestrator) prepareSandbox(root m.Path) (m.Path, error) {
	sandbox, err := o.fs.CreateTempDir(sandboxPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	if err := o.fs.CopyDir(root, sandbox); err != nil {
		o.cleanupSandbox(sandbox)
		return "", fmt.Errorf("failed to copy project tree: %w", err)
	}

	return sandbox, nil
}

func (o *orchestrator) applyToSandbox(sandbox m.Path, mu *m.Mutant) error {
	target := o.fs.JoinPath(string(sandbox), filepath.FromSlash(string(mu.Span.File)))

	content, err := o.fs.ReadFile(target)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", target, err)
	}

	mutated, err := ApplyCheckedPatch(content, mu.Span, mu.OriginalSnippet, mu.MutatedSnippet)
	if err != nil {
		return err
	}

	if err := o.fs.WriteFile(target, mutated, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	return nil
}

func (o *orchestrator) cleanupSandbox(sandbox m.Path) {
	if err := o.fs.RemoveAll(sandbox); err != nil {
		slog.Warn("failed to remove sandbox", "dir", sandbox, "error", err)
	}
}
