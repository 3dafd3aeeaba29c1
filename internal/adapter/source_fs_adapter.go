// Package adapter contains infrastructure adapters for the zkmutant CLI.
package adapter

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// nargoManifest marks the root of a Noir project.
const nargoManifest = "Nargo.toml"

// sourceExt is the extension of Noir source files.
const sourceExt = ".nr"

// copySkipDirs are directory names never copied into a sandbox: VCS
// metadata, nargo build output and the default report directory.
var copySkipDirs = map[string]bool{
	".git":            true,
	"target":          true,
	"mutants.out":     true,
	"mutants.out.old": true,
}

// SourceFSAdapter abstracts the filesystem operations the domain layer
// relies on when scanning and sandboxing user projects. It hides direct
// `os` access so workflow logic can be tested without touching the disk.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// FindProjectRoot walks up from startPath (a project root or any path
	// inside one) to the nearest directory containing Nargo.toml.
	FindProjectRoot(startPath m.Path) (m.Path, error)

	// ListSources returns every .nr file under root, sorted by relative
	// path. Paths matching any exclude regex are dropped.
	ListSources(root m.Path, exclude []string) ([]m.SourceFile, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// FileInfo returns metadata for a path so callers can check existence.
	FileInfo(path m.Path) (os.FileInfo, error)

	// CreateTempDir creates a temporary directory for mutant sandboxes.
	CreateTempDir(pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// CopyDir recursively copies a project tree, skipping VCS metadata,
	// build output and report directories.
	CopyDir(src, dst m.Path) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter implementation.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter ready to be
// wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// FindProjectRoot walks up from startPath to the nearest Nargo.toml.
func (a *LocalSourceFSAdapter) FindProjectRoot(startPath m.Path) (m.Path, error) {
	abs, err := filepath.Abs(string(startPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startPath, err)
	}

	dir := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	for {
		manifest := filepath.Join(dir, nargoManifest)
		if _, err := os.Stat(manifest); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found in %s or any parent directory", nargoManifest, startPath)
		}

		dir = parent
	}
}

// ListSources walks root and returns the sorted .nr file list.
func (a *LocalSourceFSAdapter) ListSources(root m.Path, exclude []string) ([]m.SourceFile, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))
	for _, expr := range exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile exclude pattern %q: %w", expr, err)
		}

		patterns = append(patterns, re)
	}

	var sources []m.SourceFile

	rootStr := string(root)
	err := filepath.WalkDir(rootStr, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path != rootStr && copySkipDirs[entry.Name()] {
				return filepath.SkipDir
			}

			return nil
		}

		if filepath.Ext(path) != sourceExt {
			return nil
		}

		rel, err := filepath.Rel(rootStr, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		for _, re := range patterns {
			if re.MatchString(rel) {
				return nil
			}
		}

		sources = append(sources, m.SourceFile{RelPath: m.Path(rel), AbsPath: m.Path(path)})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sources under %s: %w", root, err)
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].RelPath < sources[j].RelPath
	})

	return sources, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// CreateTempDir creates a temporary directory for mutant sandboxes.
func (a *LocalSourceFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyDir recursively copies a project tree.
func (a *LocalSourceFSAdapter) CopyDir(src, dst m.Path) error {
	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() && path != string(src) && copySkipDirs[filepath.Base(path)] {
			return filepath.SkipDir
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		targetPath := filepath.Join(string(dst), relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}

		return a.copyFile(path, targetPath, info.Mode())
	})
}

// copyFile copies a single file preserving its mode.
func (a *LocalSourceFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is an internal project file path, not user input
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is an internal destination path, not user input
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return os.Chmod(dst, mode)
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
