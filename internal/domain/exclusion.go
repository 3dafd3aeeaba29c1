// Package domain implements the mutation engine: exclusion scanning,
// candidate discovery, patching and sandboxed execution.
package domain

import (
	"strings"
)

// Range is a half-open byte interval [Start, End) in a file's content.
type Range struct {
	Start uint32
	End   uint32
}

// Contains reports whether pos falls inside the range.
func (r Range) Contains(pos uint32) bool {
	return pos >= r.Start && pos < r.End
}

// ExcludedRanges returns the byte ranges of content that candidate
// discovery must skip: comments, string and character literals, and test
// function bodies. Ranges from the two passes may overlap; callers treat
// the union. Over-exclusion is acceptable, silent corruption is not.
func ExcludedRanges(content []byte) []Range {
	ranges := scanLiteralAndCommentRanges(content)

	return append(ranges, scanTestBodyRanges(content)...)
}

// inAnyRange reports whether pos is inside any of the ranges.
func inAnyRange(ranges []Range, pos uint32) bool {
	for _, r := range ranges {
		if r.Contains(pos) {
			return true
		}
	}

	return false
}

type scanState int

const (
	stateCode scanState = iota
	stateLineComment
	stateBlockComment
	stateDoubleQuote
	stateSingleQuote
)

// scanLiteralAndCommentRanges walks content once with a five-state scanner.
// Line comments run from // to the end of the line, block comments from
// /* to */ without nesting, and string or character literals honor
// backslash escapes. A comment or literal still open at EOF closes there.
func scanLiteralAndCommentRanges(content []byte) []Range {
	var (
		ranges []Range
		state  = stateCode
		start  int
	)

	i := 0
	for i < len(content) {
		b := content[i]

		switch state {
		case stateCode:
			switch {
			case b == '/' && i+1 < len(content) && content[i+1] == '/':
				state, start = stateLineComment, i
				i += 2
			case b == '/' && i+1 < len(content) && content[i+1] == '*':
				state, start = stateBlockComment, i
				i += 2
			case b == '"':
				state, start = stateDoubleQuote, i
				i++
			case b == '\'':
				state, start = stateSingleQuote, i
				i++
			default:
				i++
			}
		case stateLineComment:
			if b == '\n' {
				ranges = append(ranges, Range{Start: uint32(start), End: uint32(i)})
				state = stateCode
			}
			i++
		case stateBlockComment:
			if b == '*' && i+1 < len(content) && content[i+1] == '/' {
				ranges = append(ranges, Range{Start: uint32(start), End: uint32(i + 2)})
				state = stateCode
				i += 2
			} else {
				i++
			}
		case stateDoubleQuote, stateSingleQuote:
			quote := byte('"')
			if state == stateSingleQuote {
				quote = '\''
			}

			switch b {
			case '\\':
				i += 2
			case quote:
				ranges = append(ranges, Range{Start: uint32(start), End: uint32(i + 1)})
				state = stateCode
				i++
			default:
				i++
			}
		}
	}

	if state != stateCode {
		ranges = append(ranges, Range{Start: uint32(start), End: uint32(len(content))})
	}

	return ranges
}

// testMarkerPrefix starts a Noir test attribute line, including forms like
// #[test(should_fail)] and #[test(should_fail_with = "...")].
const testMarkerPrefix = "#[test"

// scanTestBodyRanges finds test function bodies with an independent
// line-oriented pass: a test-marker line, then on a later line a function
// declaration, then a brace depth counter (counted from the declaration
// line) returning to zero. The range covers the marker line through the
// closing line. An unterminated construct at EOF is abandoned.
func scanTestBodyRanges(content []byte) []Range {
	var (
		ranges      []Range
		markerStart = -1
		inBody      bool
		depth       int
		seenBrace   bool
	)

	for lineStart := 0; lineStart < len(content); {
		lineEnd := lineStart
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}

		line := string(content[lineStart:lineEnd])

		switch {
		case inBody:
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			seenBrace = seenBrace || strings.Contains(line, "{")

			if seenBrace && depth <= 0 {
				ranges = append(ranges, Range{Start: uint32(markerStart), End: uint32(lineEnd)})
				markerStart, inBody = -1, false
			}
		case markerStart >= 0 && isFunctionDeclLine(line):
			inBody = true
			depth = strings.Count(line, "{") - strings.Count(line, "}")
			seenBrace = strings.Contains(line, "{")

			if seenBrace && depth <= 0 {
				ranges = append(ranges, Range{Start: uint32(markerStart), End: uint32(lineEnd)})
				markerStart, inBody = -1, false
			}
		case markerStart < 0 && isTestMarkerLine(line):
			markerStart = lineStart
		}

		lineStart = lineEnd + 1
	}

	return ranges
}

func isTestMarkerLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), testMarkerPrefix)
}

// isFunctionDeclLine accepts declarations with leading modifiers, e.g.
// "fn x()", "pub fn x()" and "unconstrained fn x()".
func isFunctionDeclLine(line string) bool {
	fields := strings.Fields(line)
	for i, field := range fields {
		if i > 2 {
			break
		}

		if field == "fn" {
			return true
		}
	}

	return false
}
