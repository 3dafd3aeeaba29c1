package domain

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"zkmutant.dev/pkg/zkmutant/internal/adapter"
	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

// Discoverer generates mutation candidates for a set of source files.
type Discoverer interface {
	// Discover scans every source and returns all candidates, stably
	// sorted by (file, span start) and numbered 1..n in that order. A
	// file that cannot be read contributes zero mutants; it never fails
	// the discovery.
	Discover(ctx context.Context, sources []m.SourceFile) ([]m.Mutant, error)
}

type discoverer struct {
	fs    adapter.SourceFSAdapter
	rules []Rule
}

// NewDiscoverer creates a Discoverer using the built-in operator table.
func NewDiscoverer(fs adapter.SourceFSAdapter) Discoverer {
	return &discoverer{fs: fs, rules: DefaultRules()}
}

// Discover scans files concurrently. Candidates are collected per file
// with no shared counter, so scheduling order cannot influence the final
// numbering; IDs exist only after the global sort.
func (d *discoverer) Discover(ctx context.Context, sources []m.SourceFile) ([]m.Mutant, error) {
	perFile := make([][]m.Mutant, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())

	for i, src := range sources {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			content, err := d.fs.ReadFile(src.AbsPath)
			if err != nil {
				slog.Warn("skipping unreadable source", "file", src.RelPath, "error", err)
				return nil
			}

			perFile[i] = scanSource(src.RelPath, content, d.rules)
			slog.Debug("scanned source", "file", src.RelPath, "candidates", len(perFile[i]))

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	mutants := make([]m.Mutant, 0)
	for _, candidates := range perFile {
		mutants = append(mutants, candidates...)
	}

	sort.SliceStable(mutants, func(i, j int) bool {
		if mutants[i].Span.File != mutants[j].Span.File {
			return mutants[i].Span.File < mutants[j].Span.File
		}

		return mutants[i].Span.Start < mutants[j].Span.Start
	})

	for i := range mutants {
		mutants[i].ID = uint64(i + 1)
	}

	slog.Debug("discovery complete", "files", len(sources), "mutants", len(mutants))

	return mutants, nil
}

// scanSource applies every rule to one file's content. Matches are found
// by plain substring search; a match is dropped when it starts inside an
// excluded range or an adjacent byte suppresses it. The cursor always
// advances by at least one byte, so a scan terminates on any input.
func scanSource(file m.Path, content []byte, rules []Rule) []m.Mutant {
	excluded := ExcludedRanges(content)

	var candidates []m.Mutant

	for _, rule := range rules {
		pattern := []byte(rule.Pattern)

		for pos := 0; pos < len(content); {
			offset := bytes.Index(content[pos:], pattern)
			if offset < 0 {
				break
			}

			start := pos + offset
			end := start + len(pattern)

			if !inAnyRange(excluded, uint32(start)) && !rule.Suppressed(content, start, end) {
				candidates = append(candidates, m.Mutant{
					Operator: m.MutationOperator{Category: rule.Category, Name: rule.Name},
					Span: m.SourceSpan{
						File:  file,
						Start: uint32(start),
						End:   uint32(end),
					},
					OriginalSnippet: rule.Pattern,
					MutatedSnippet:  rule.Replacement,
					Outcome:         m.OutcomeNotRun,
				})
			}

			next := start + len(pattern)
			if next <= pos {
				next = pos + 1
			}

			if next > len(content) {
				next = len(content)
			}

			pos = next
		}
	}

	return candidates
}
