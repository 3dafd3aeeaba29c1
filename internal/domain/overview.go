package domain

import (
	"log/slog"
	"strings"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// ReadFunc loads one file's content. It matches the FS adapter's ReadFile
// so BuildOverview stays testable without a full adapter.
type ReadFunc func(path m.Path) ([]byte, error)

// BuildOverview computes the scan-time project metrics. A file that cannot
// be read contributes nothing; line counts skip blank lines, and a line is
// a test line when its start offset falls inside a test function body.
func BuildOverview(sources []m.SourceFile, read ReadFunc) m.ProjectOverview {
	var overview m.ProjectOverview

	for _, src := range sources {
		content, err := read(src.AbsPath)
		if err != nil {
			slog.Warn("skipping unreadable source in overview", "file", src.RelPath, "error", err)
			continue
		}

		overview.Files++

		markers := countTestMarkers(content)
		overview.TestFunctions += markers

		if markers > 0 {
			overview.TestFiles++
		}

		testRanges := scanTestBodyRanges(content)
		code, test := countLines(content, testRanges)
		overview.CodeLines += code
		overview.TestLines += test
	}

	return overview
}

func countTestMarkers(content []byte) int {
	count := 0

	for _, line := range strings.Split(string(content), "\n") {
		if isTestMarkerLine(line) {
			count++
		}
	}

	return count
}

// countLines buckets every non-blank line into code or test by whether the
// line's first byte lies inside a test body range.
func countLines(content []byte, testRanges []Range) (code, test int) {
	for lineStart := 0; lineStart < len(content); {
		lineEnd := lineStart
		for lineEnd < len(content) && content[lineEnd] != '\n' {
			lineEnd++
		}

		if strings.TrimSpace(string(content[lineStart:lineEnd])) != "" {
			if inAnyRange(testRanges, uint32(lineStart)) {
				test++
			} else {
				code++
			}
		}

		lineStart = lineEnd + 1
	}

	return code, test
}
