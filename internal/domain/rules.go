package domain

import (
	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// Rule is one entry of the ordered operator table. Pattern is matched by
// plain substring search; Replacement is what the mutant writes in its
// place. The suppress sets hold bytes that, when adjacent to a match,
// extend the matched text into a longer recognized token, in which case
// the match belongs to another rule (or to no rule) and must be skipped.
type Rule struct {
	Pattern     string
	Name        string
	Category    m.OperatorCategory
	Replacement string

	nextSuppress string
	prevSuppress string
}

// wordBytes guards word-like patterns such as "true" and "0" against
// matching inside identifiers and longer numeric literals.
const wordBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_"

// Suppressed reports whether the match of r.Pattern at content[start:end]
// must be skipped because of an adjacent byte.
func (r Rule) Suppressed(content []byte, start, end int) bool {
	if r.prevSuppress != "" && start > 0 && byteIn(r.prevSuppress, content[start-1]) {
		return true
	}

	if r.nextSuppress != "" && end < len(content) && byteIn(r.nextSuppress, content[end]) {
		return true
	}

	return false
}

func byteIn(set string, b byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == b {
			return true
		}
	}

	return false
}

// DefaultRules returns the built-in operator table. Multi-character
// patterns come before their single-character prefixes, and the
// single-character entries carry the suppress sets that keep them off
// longer tokens (<= stays with le_to_gt, -> is never touched, and so on).
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "==", Name: "eq_to_neq", Category: m.CategoryCondition, Replacement: "!="},
		{Pattern: "!=", Name: "neq_to_eq", Category: m.CategoryCondition, Replacement: "=="},
		{Pattern: "<=", Name: "le_to_gt", Category: m.CategoryCondition, Replacement: ">"},
		{Pattern: ">=", Name: "ge_to_lt", Category: m.CategoryCondition, Replacement: "<"},
		{Pattern: "<", Name: "lt_to_ge", Category: m.CategoryCondition, Replacement: ">=", nextSuppress: "=<", prevSuppress: "<"},
		{Pattern: ">", Name: "gt_to_le", Category: m.CategoryCondition, Replacement: "<=", nextSuppress: "=>", prevSuppress: "-=>"},
		{Pattern: "+", Name: "add_to_sub", Category: m.CategoryArithmetic, Replacement: "-"},
		{Pattern: "-", Name: "sub_to_add", Category: m.CategoryArithmetic, Replacement: "+", nextSuppress: ">"},
		{Pattern: "*", Name: "mul_to_div", Category: m.CategoryArithmetic, Replacement: "/"},
		{Pattern: "/", Name: "div_to_mul", Category: m.CategoryArithmetic, Replacement: "*"},
		{Pattern: "%", Name: "mod_to_mul", Category: m.CategoryArithmetic, Replacement: "*"},
		{Pattern: "&", Name: "and_to_or", Category: m.CategoryBooleanConnective, Replacement: "|", nextSuppress: "&", prevSuppress: "&"},
		{Pattern: "|", Name: "or_to_and", Category: m.CategoryBooleanConnective, Replacement: "&", nextSuppress: "|", prevSuppress: "|"},
		{Pattern: "!", Name: "not_removal", Category: m.CategoryBooleanConnective, Replacement: "", nextSuppress: "="},
		{Pattern: "true", Name: "true_to_false", Category: m.CategoryConstant, Replacement: "false", nextSuppress: wordBytes, prevSuppress: wordBytes},
		{Pattern: "false", Name: "false_to_true", Category: m.CategoryConstant, Replacement: "true", nextSuppress: wordBytes, prevSuppress: wordBytes},
		{Pattern: "0", Name: "zero_to_one", Category: m.CategoryConstant, Replacement: "1", nextSuppress: wordBytes, prevSuppress: wordBytes},
		{Pattern: "1", Name: "one_to_zero", Category: m.CategoryConstant, Replacement: "0", nextSuppress: wordBytes, prevSuppress: wordBytes},
	}
}
