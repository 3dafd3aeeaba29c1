package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// ToolchainAdapter probes the installed Noir toolchain. Both probes are
// best-effort inputs for baseline-failure hints and the version command.
type ToolchainAdapter interface {
	// Version returns the first line of `nargo --version`.
	Version(ctx context.Context) (string, error)

	// CompilerVersion returns the compiler_version entry of the project's
	// Nargo.toml. A missing manifest or a manifest without the entry is
	// not an error; both return the empty string.
	CompilerVersion(root m.Path) (string, error)
}

// LocalToolchainAdapter probes nargo through os/exec and the manifest on
// disk.
type LocalToolchainAdapter struct {
	command string
}

// NewLocalToolchainAdapter constructs a LocalToolchainAdapter. Empty
// command falls back to nargo.
func NewLocalToolchainAdapter(command string) *LocalToolchainAdapter {
	if command == "" {
		command = defaultNargoCommand
	}

	return &LocalToolchainAdapter{command: command}
}

// Version runs `nargo --version` and returns its first output line.
func (a *LocalToolchainAdapter) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, a.command, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to run %s --version: %w", a.command, err)
	}

	line, _, _ := strings.Cut(string(out), "\n")

	return strings.TrimSpace(line), nil
}

// CompilerVersion hand-parses Nargo.toml for a compiler_version entry.
func (a *LocalToolchainAdapter) CompilerVersion(root m.Path) (string, error) {
	manifest := filepath.Join(string(root), nargoManifest)

	content, err := os.ReadFile(manifest) // #nosec G304 - manifest path is derived from the project root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("failed to read %s: %w", manifest, err)
	}

	for _, line := range strings.Split(string(content), "\n") {
		line, _, _ = strings.Cut(line, "#")
		line = strings.TrimSpace(line)

		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) != "compiler_version" {
			continue
		}

		return strings.Trim(strings.TrimSpace(value), `"'`), nil
	}

	return "", nil
}
