// Package model defines the data structures for mutation testing.
package model

import "fmt"

// OperatorCategory groups mutation operators by the kind of code change
// they make.
type OperatorCategory string

const (
	// CategoryCondition covers comparison changes (==, !=, <, <=, >, >=).
	CategoryCondition OperatorCategory = "condition"
	// CategoryConstant covers literal constant changes (0 -> 1, true -> false).
	CategoryConstant OperatorCategory = "constant"
	// CategoryBooleanConnective covers boolean connective changes (&, |, !).
	CategoryBooleanConnective OperatorCategory = "boolean_connective"
	// CategoryArithmetic covers arithmetic operator changes (+, -, *, /, %).
	CategoryArithmetic OperatorCategory = "arithmetic"
)

// Title returns the category in the CamelCase form used in human output.
func (c OperatorCategory) Title() string {
	switch c {
	case CategoryCondition:
		return "Condition"
	case CategoryConstant:
		return "Constant"
	case CategoryBooleanConnective:
		return "BooleanConnective"
	case CategoryArithmetic:
		return "Arithmetic"
	}

	return string(c)
}

// MutationOperator identifies one rewrite rule, e.g. condition/eq_to_neq.
type MutationOperator struct {
	Category OperatorCategory `json:"category"`
	Name     string           `json:"name"`
}

// SourceSpan is a half-open byte range [Start, End) in the full content of
// a single source file. File is root-relative.
type SourceSpan struct {
	File  Path   `json:"file"`
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Len returns the number of bytes the span covers.
func (s SourceSpan) Len() int {
	return int(s.End) - int(s.Start)
}

// MutantOutcome is the execution status of a mutant.
type MutantOutcome string

const (
	// OutcomeNotRun means the mutant was discovered but never executed.
	OutcomeNotRun MutantOutcome = "not_run"
	// OutcomeKilled means the test suite failed under the mutation.
	OutcomeKilled MutantOutcome = "killed"
	// OutcomeSurvived means the test suite still passed under the mutation.
	OutcomeSurvived MutantOutcome = "survived"
	// OutcomeInvalid means the mutant could not be tested at all.
	OutcomeInvalid MutantOutcome = "invalid"
)

// Mutant is one candidate code change. IDs are 1-based and assigned only
// after the global (file, span start) ordering is fixed. Outcome and
// DurationMS are written at most once, by the execution driver; everything
// else is immutable after discovery.
type Mutant struct {
	ID              uint64           `json:"id"`
	Operator        MutationOperator `json:"operator"`
	Span            SourceSpan       `json:"span"`
	OriginalSnippet string           `json:"original_snippet"`
	MutatedSnippet  string           `json:"mutated_snippet"`
	Outcome         MutantOutcome    `json:"outcome"`
	DurationMS      *uint64          `json:"duration_ms,omitempty"`
}

// Short renders the one-line human form of a mutant:
//
//	#3 src/main.nr [120..122] Condition/eq_to_neq: "==" -> "!="
func (mu Mutant) Short() string {
	return fmt.Sprintf("#%d %s [%d..%d] %s/%s: %q -> %q",
		mu.ID,
		mu.Span.File,
		mu.Span.Start,
		mu.Span.End,
		mu.Operator.Category.Title(),
		mu.Operator.Name,
		mu.OriginalSnippet,
		mu.MutatedSnippet,
	)
}
