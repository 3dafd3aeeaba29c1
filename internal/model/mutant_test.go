package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorCategoryTitle(t *testing.T) {
	assert.Equal(t, "Condition", CategoryCondition.Title())
	assert.Equal(t, "Constant", CategoryConstant.Title())
	assert.Equal(t, "BooleanConnective", CategoryBooleanConnective.Title())
	assert.Equal(t, "Arithmetic", CategoryArithmetic.Title())
	assert.Equal(t, "custom", OperatorCategory("custom").Title())
}

func TestMutantShort(t *testing.T) {
	mu := Mutant{
		ID:              3,
		Operator:        MutationOperator{Category: CategoryCondition, Name: "eq_to_neq"},
		Span:            SourceSpan{File: "src/main.nr", Start: 120, End: 122},
		OriginalSnippet: "==",
		MutatedSnippet:  "!=",
	}

	assert.Equal(t, `#3 src/main.nr [120..122] Condition/eq_to_neq: "==" -> "!="`, mu.Short())
}

func TestSourceSpanLen(t *testing.T) {
	assert.Equal(t, 2, SourceSpan{Start: 120, End: 122}.Len())
	assert.Equal(t, 0, SourceSpan{Start: 5, End: 5}.Len())
}

func TestMutantJSON(t *testing.T) {
	duration := uint64(42)
	mu := Mutant{
		ID:              1,
		Operator:        MutationOperator{Category: CategoryArithmetic, Name: "add_to_sub"},
		Span:            SourceSpan{File: "src/main.nr", Start: 10, End: 11},
		OriginalSnippet: "+",
		MutatedSnippet:  "-",
		Outcome:         OutcomeKilled,
		DurationMS:      &duration,
	}

	content, err := json.Marshal(mu)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 1,
		"operator": {"category": "arithmetic", "name": "add_to_sub"},
		"span": {"file": "src/main.nr", "start": 10, "end": 11},
		"original_snippet": "+",
		"mutated_snippet": "-",
		"outcome": "killed",
		"duration_ms": 42
	}`, string(content))

	// duration_ms is omitted while unset.
	mu.DurationMS = nil
	content, err = json.Marshal(mu)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "duration_ms")
}
