package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// DefaultTestTimeout bounds a single test-suite run. A mutation can turn a
// terminating loop into an endless one, so every run gets a forced stop.
const DefaultTestTimeout = 2 * time.Minute

// defaultNargoCommand is the test command binary when none is configured.
const defaultNargoCommand = "nargo"

// TestRunnerAdapter abstracts execution of the project's test suite.
type TestRunnerAdapter interface {
	// RunTests runs the Noir test suite in workDir and reports how the
	// command ended. The returned error is non-nil only when the command
	// could not be run or was aborted from outside; a command that ran and
	// failed (forced termination on timeout included) is a regular result
	// with Success false.
	RunTests(ctx context.Context, workDir m.Path) (m.TestCommandResult, error)
}

// LocalTestRunnerAdapter runs nargo through os/exec.
type LocalTestRunnerAdapter struct {
	command string
	timeout time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter. Empty
// command falls back to nargo, non-positive timeout to the default.
func NewLocalTestRunnerAdapter(command string, timeout time.Duration) *LocalTestRunnerAdapter {
	if command == "" {
		command = defaultNargoCommand
	}

	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}

	return &LocalTestRunnerAdapter{command: command, timeout: timeout}
}

// RunTests runs `<command> test` in workDir with the configured timeout.
func (a *LocalTestRunnerAdapter) RunTests(ctx context.Context, workDir m.Path) (m.TestCommandResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.command, "test")
	cmd.Dir = string(workDir)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := m.TestCommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		code := 0
		result.ExitCode = &code
		result.Success = true

		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code >= 0 {
			result.ExitCode = &code
		}

		if ctx.Err() != nil {
			// Aborted from outside, not a verdict on this tree.
			return result, fmt.Errorf("test run aborted: %w", ctx.Err())
		}

		return result, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return result, nil
	default:
		return result, fmt.Errorf("failed to run %s test: %w", a.command, err)
	}
}
