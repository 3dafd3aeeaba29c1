package adapter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

func sampleMutants() []m.Mutant {
	duration := uint64(12)

	return []m.Mutant{
		{
			ID:              1,
			Operator:        m.MutationOperator{Category: m.CategoryCondition, Name: "eq_to_neq"},
			Span:            m.SourceSpan{File: "src/main.nr", Start: 10, End: 12},
			OriginalSnippet: "==",
			MutatedSnippet:  "!=",
			Outcome:         m.OutcomeKilled,
			DurationMS:      &duration,
		},
		{
			ID:              2,
			Operator:        m.MutationOperator{Category: m.CategoryArithmetic, Name: "add_to_sub"},
			Span:            m.SourceSpan{File: "src/main.nr", Start: 30, End: 31},
			OriginalSnippet: "+",
			MutatedSnippet:  "-",
			Outcome:         m.OutcomeSurvived,
		},
		{
			ID:              3,
			Operator:        m.MutationOperator{Category: m.CategoryConstant, Name: "zero_to_one"},
			Span:            m.SourceSpan{File: "src/lib.nr", Start: 4, End: 5},
			OriginalSnippet: "0",
			MutatedSnippet:  "1",
			Outcome:         m.OutcomeInvalid,
		},
	}
}

func TestPrepareRotatesExistingDir(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), "mutants.out"))

	require.NoError(t, s.Prepare(dir))
	require.NoError(t, os.WriteFile(filepath.Join(string(dir), "run.json"), []byte("{}"), 0o600))

	require.NoError(t, s.Prepare(dir))

	// The old contents moved aside; the fresh dir is empty.
	_, err := os.Stat(filepath.Join(string(dir)+".old", "run.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(string(dir))
	require.NoError(t, err)
	assert.Empty(t, entries)

	// A third Prepare replaces the previous .old.
	require.NoError(t, s.Prepare(dir))
}

func TestSaveAndLoadRun(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(t.TempDir())

	baseline := m.BaselineReport{Success: true, DurationMS: 100}
	report := m.NewRunReport("/proj", 3, 3, &baseline, sampleMutants())

	require.NoError(t, s.SaveRun(dir, report))

	loaded, err := s.LoadRun(dir)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
}

func TestLoadRunMissing(t *testing.T) {
	s := NewReportStore()

	_, err := s.LoadRun(m.Path(t.TempDir()))
	require.Error(t, err)
}

func TestSaveOutcomeLists(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, s.SaveOutcomeLists(dir, sampleMutants()))

	caught, err := os.ReadFile(filepath.Join(string(dir), "caught.txt")) // #nosec G304 - test artifact
	require.NoError(t, err)
	assert.Contains(t, string(caught), "#1 src/main.nr")

	missed, err := os.ReadFile(filepath.Join(string(dir), "missed.txt")) // #nosec G304 - test artifact
	require.NoError(t, err)
	assert.Contains(t, string(missed), "#2 src/main.nr")

	unviable, err := os.ReadFile(filepath.Join(string(dir), "unviable.txt")) // #nosec G304 - test artifact
	require.NoError(t, err)
	assert.Contains(t, string(unviable), "#3 src/lib.nr")
}

func TestSaveOutcomeListsEmptyFilesExist(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, s.SaveOutcomeLists(dir, nil))

	for _, name := range []string{"caught.txt", "missed.txt", "unviable.txt"} {
		content, err := os.ReadFile(filepath.Join(string(dir), name)) // #nosec G304 - test artifact
		require.NoError(t, err, name)
		assert.Empty(t, content, name)
	}
}

func TestSaveOutcomesSortedByID(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(t.TempDir())

	mutants := sampleMutants()
	mutants[0], mutants[2] = mutants[2], mutants[0] // shuffle

	require.NoError(t, s.SaveOutcomes(dir, mutants))

	content, err := os.ReadFile(filepath.Join(string(dir), "outcomes.json")) // #nosec G304 - test artifact
	require.NoError(t, err)

	text := string(content)
	assert.Less(t, indexOf(t, text, `"id": 1`), indexOf(t, text, `"id": 2`))
	assert.Less(t, indexOf(t, text, `"id": 2`), indexOf(t, text, `"id": 3`))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()

	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "%q not found", needle)

	return idx
}

func TestSaveDiffsNaming(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(t.TempDir())

	diffs := map[uint64]string{
		1:  "--- a/src/main.nr\n+++ b/src/main.nr\n",
		42: "--- a/src/lib.nr\n+++ b/src/lib.nr\n",
	}

	require.NoError(t, s.SaveDiffs(dir, diffs))

	for _, name := range []string{"000001.diff", "000042.diff"} {
		_, err := os.Stat(filepath.Join(string(dir), "diff", name))
		assert.NoError(t, err, name)
	}
}

func TestSaveLogIsDeterministic(t *testing.T) {
	s := NewReportStore()

	baseline := m.BaselineReport{Success: true, DurationMS: 100}
	report := m.NewRunReport("/proj", 3, 3, &baseline, sampleMutants())

	dirA := m.Path(t.TempDir())
	dirB := m.Path(t.TempDir())

	require.NoError(t, s.SaveLog(dirA, report))
	require.NoError(t, s.SaveLog(dirB, report))

	logA, err := os.ReadFile(filepath.Join(string(dirA), "log")) // #nosec G304 - test artifact
	require.NoError(t, err)
	logB, err := os.ReadFile(filepath.Join(string(dirB), "log")) // #nosec G304 - test artifact
	require.NoError(t, err)

	assert.Equal(t, logA, logB)
	assert.Contains(t, string(logA), "summary killed=1 survived=1 invalid=1")
	assert.Contains(t, string(logA), "baseline ok")
}

func TestSaveMutantsNilBecomesEmptyArray(t *testing.T) {
	s := NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, s.SaveMutants(dir, nil))

	content, err := os.ReadFile(filepath.Join(string(dir), "mutants.json")) // #nosec G304 - test artifact
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(content))
}
