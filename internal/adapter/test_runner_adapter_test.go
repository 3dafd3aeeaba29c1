package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// writeScript creates an executable stand-in for the nargo binary. The
// adapter invokes it as `<script> test`.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-nargo")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700)) // #nosec G306 - script must be executable

	return path
}

func TestRunTests(t *testing.T) {
	t.Run("exit zero is success", func(t *testing.T) {
		script := writeScript(t, "echo running tests\nexit 0\n")
		a := NewLocalTestRunnerAdapter(script, time.Minute)

		result, err := a.RunTests(context.Background(), m.Path(t.TempDir()))
		require.NoError(t, err)
		assert.True(t, result.Success)
		require.NotNil(t, result.ExitCode)
		assert.Zero(t, *result.ExitCode)
		assert.Contains(t, result.Stdout, "running tests")
		assert.Positive(t, result.Duration)
	})

	t.Run("nonzero exit is a regular failed result", func(t *testing.T) {
		script := writeScript(t, "echo boom >&2\nexit 3\n")
		a := NewLocalTestRunnerAdapter(script, time.Minute)

		result, err := a.RunTests(context.Background(), m.Path(t.TempDir()))
		require.NoError(t, err)
		assert.False(t, result.Success)
		require.NotNil(t, result.ExitCode)
		assert.Equal(t, 3, *result.ExitCode)
		assert.Contains(t, result.Stderr, "boom")
	})

	t.Run("missing binary is an error", func(t *testing.T) {
		a := NewLocalTestRunnerAdapter(filepath.Join(t.TempDir(), "missing"), time.Minute)

		_, err := a.RunTests(context.Background(), m.Path(t.TempDir()))
		require.Error(t, err)
	})

	t.Run("timeout yields a failed result, not an error", func(t *testing.T) {
		script := writeScript(t, "sleep 5\nexit 0\n")
		a := NewLocalTestRunnerAdapter(script, 100*time.Millisecond)

		result, err := a.RunTests(context.Background(), m.Path(t.TempDir()))
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Nil(t, result.ExitCode)
	})

	t.Run("canceled context is an error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		script := writeScript(t, "sleep 5\nexit 0\n")
		a := NewLocalTestRunnerAdapter(script, time.Minute)

		_, err := a.RunTests(ctx, m.Path(t.TempDir()))
		require.Error(t, err)
	})

	t.Run("runs in the given working directory", func(t *testing.T) {
		script := writeScript(t, "pwd\nexit 0\n")
		a := NewLocalTestRunnerAdapter(script, time.Minute)

		workDir := t.TempDir()
		result, err := a.RunTests(context.Background(), m.Path(workDir))
		require.NoError(t, err)
		assert.Contains(t, result.Stdout, filepath.Base(workDir))
	})
}

func TestNewLocalTestRunnerAdapterDefaults(t *testing.T) {
	a := NewLocalTestRunnerAdapter("", 0)

	assert.Equal(t, defaultNargoCommand, a.command)
	assert.Equal(t, DefaultTestTimeout, a.timeout)
}
