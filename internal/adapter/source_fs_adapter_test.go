package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFindProjectRoot(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	t.Run("walks up to the manifest", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "Nargo.toml"), "[package]\n")

		nested := filepath.Join(root, "src", "deep")
		require.NoError(t, os.MkdirAll(nested, 0o750))

		found, err := a.FindProjectRoot(m.Path(nested))
		require.NoError(t, err)
		assert.Equal(t, m.Path(root), found)
	})

	t.Run("accepts a file inside the project", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "Nargo.toml"), "[package]\n")
		writeFile(t, filepath.Join(root, "src", "main.nr"), "fn main() {}\n")

		found, err := a.FindProjectRoot(m.Path(filepath.Join(root, "src", "main.nr")))
		require.NoError(t, err)
		assert.Equal(t, m.Path(root), found)
	})

	t.Run("errors when no manifest exists", func(t *testing.T) {
		_, err := a.FindProjectRoot(m.Path(t.TempDir()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Nargo.toml")
	})
}

func TestListSources(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	setup := func(t *testing.T) string {
		t.Helper()

		root := t.TempDir()
		writeFile(t, filepath.Join(root, "Nargo.toml"), "[package]\n")
		writeFile(t, filepath.Join(root, "src", "main.nr"), "fn main() {}\n")
		writeFile(t, filepath.Join(root, "src", "aux.nr"), "fn aux() {}\n")
		writeFile(t, filepath.Join(root, "src", "notes.txt"), "not a source\n")
		writeFile(t, filepath.Join(root, "target", "gen.nr"), "fn gen() {}\n")
		writeFile(t, filepath.Join(root, ".git", "hook.nr"), "fn hook() {}\n")
		writeFile(t, filepath.Join(root, "mutants.out", "stale.nr"), "fn stale() {}\n")

		return root
	}

	t.Run("sorted nr files only, skip dirs honored", func(t *testing.T) {
		root := setup(t)

		sources, err := a.ListSources(m.Path(root), nil)
		require.NoError(t, err)

		rels := make([]string, 0, len(sources))
		for _, src := range sources {
			rels = append(rels, string(src.RelPath))
		}

		assert.Equal(t, []string{"src/aux.nr", "src/main.nr"}, rels)
	})

	t.Run("exclude regex drops matches", func(t *testing.T) {
		root := setup(t)

		sources, err := a.ListSources(m.Path(root), []string{`aux\.nr$`})
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, m.Path("src/main.nr"), sources[0].RelPath)
	})

	t.Run("bad exclude regex fails", func(t *testing.T) {
		root := setup(t)

		_, err := a.ListSources(m.Path(root), []string{"("})
		require.Error(t, err)
	})
}

func TestCopyDir(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "Nargo.toml"), "[package]\n")
	writeFile(t, filepath.Join(src, "src", "main.nr"), "fn main() {}\n")
	writeFile(t, filepath.Join(src, ".git", "config"), "[core]\n")
	writeFile(t, filepath.Join(src, "target", "out.bin"), "binary\n")
	require.NoError(t, os.Chmod(filepath.Join(src, "src", "main.nr"), 0o755))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, a.CopyDir(m.Path(src), m.Path(dst)))

	content, err := os.ReadFile(filepath.Join(dst, "src", "main.nr")) // #nosec G304 - test fixture
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(content))

	info, err := os.Stat(filepath.Join(dst, "src", "main.nr"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	for _, skipped := range []string{".git", "target"} {
		_, err := os.Stat(filepath.Join(dst, skipped))
		assert.True(t, os.IsNotExist(err), skipped)
	}
}

func TestCreateAndRemoveTempDir(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	dir, err := a.CreateTempDir("zkmutant-test-*")
	require.NoError(t, err)
	assert.Contains(t, string(dir), "zkmutant-test-")

	require.NoError(t, a.RemoveAll(dir))

	_, err = os.Stat(string(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestReadWriteFile(t *testing.T) {
	a := NewLocalSourceFSAdapter()
	path := m.Path(filepath.Join(t.TempDir(), "f.nr"))

	require.NoError(t, a.WriteFile(path, []byte("fn f() {}\n"), 0o600))

	content, err := a.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fn f() {}\n", string(content))

	info, err := a.FileInfo(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestPathHelpers(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	assert.Equal(t, m.Path(filepath.Join("a", "b", "c")), a.JoinPath("a", "b", "c"))

	rel, err := a.RelPath("/proj", "/proj/src/main.nr")
	require.NoError(t, err)
	assert.Equal(t, m.Path(filepath.Join("src", "main.nr")), rel)
}
