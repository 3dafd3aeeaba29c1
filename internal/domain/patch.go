package domain

import (
	"fmt"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// ApplyPatch splices replacement over the span's byte range and returns
// the new content. The input slice is never modified.
func ApplyPatch(content []byte, span m.SourceSpan, replacement string) []byte {
	patched := make([]byte, 0, len(content)-span.Len()+len(replacement))
	patched = append(patched, content[:span.Start]...)
	patched = append(patched, replacement...)
	patched = append(patched, content[span.End:]...)

	return patched
}

// ApplyCheckedPatch verifies that the span still holds original before
// splicing. Drifted source must surface as an execution-time failure for
// the one affected mutant, never as a silently wrong patch.
func ApplyCheckedPatch(content []byte, span m.SourceSpan, original, replacement string) ([]byte, error) {
	if span.Start > span.End || int(span.End) > len(content) {
		return nil, fmt.Errorf("span [%d..%d) out of bounds for %d bytes of %s",
			span.Start, span.End, len(content), span.File)
	}

	found := string(content[span.Start:span.End])
	if found != original {
		return nil, fmt.Errorf("span [%d..%d) of %s does not match: expected %q, found %q",
			span.Start, span.End, span.File, original, found)
	}

	return ApplyPatch(content, span, replacement), nil
}
