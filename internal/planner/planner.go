// Package planner partitions the scan worklist into bounded work items.
//
// Regular files are split by count into near-equal slices. Archives are not
// assigned whole to one worker: their entries are enumerated first and
// sliced with the same ceiling-division scheme across the full pool, so one
// large archive's cost is spread instead of serialized on a single worker.
package planner

import (
	"archive/zip"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/dshills/docindex/pkg/types"
)

// Planner computes work items for a given total parallelism.
type Planner struct {
	parallelism int
}

// New creates a planner. parallelism is the upper bound on the number of
// work items produced per input class (files, each archive).
func New(parallelism int) *Planner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Planner{parallelism: parallelism}
}

// Plan partitions files into work items and returns the aggregate document
// count (regular files plus archive entries). The count is for progress
// display only: it is an upper bound, since unreadable or blank entries are
// dropped later by the workers.
//
// Guarantees: the union of all items' file paths equals the input's regular
// files; the union of all entry slices for a given archive equals its entry
// list, disjointly.
func (p *Planner) Plan(files []string) ([]types.WorkItem, int, error) {
	var regular, archives []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".zip") {
			archives = append(archives, f)
		} else {
			regular = append(regular, f)
		}
	}

	var items []types.WorkItem
	docCount := 0

	if len(regular) > 0 {
		docCount += len(regular)
		for _, slice := range splitCeil(regular, p.parallelism) {
			items = append(items, types.WorkItem{Files: slice})
		}
	}

	for _, archive := range archives {
		entries, err := listEntries(archive)
		if err != nil {
			return nil, 0, fmt.Errorf("enumerate %s: %w", filepath.Base(archive), err)
		}
		if len(entries) == 0 {
			continue
		}
		docCount += len(entries)
		slices := splitCeil(entries, p.parallelism)
		log.Printf("[plan] %s: %d entries across %d item(s)",
			filepath.Base(archive), len(entries), len(slices))
		for _, slice := range slices {
			items = append(items, types.WorkItem{Archive: archive, Entries: slice})
		}
	}

	return items, docCount, nil
}

// splitCeil slices in into at most n near-equal contiguous parts using
// ceiling division, preserving order.
func splitCeil(in []string, n int) [][]string {
	size := (len(in) + n - 1) / n
	var out [][]string
	for i := 0; i < len(in); i += size {
		end := i + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[i:end])
	}
	return out
}

// listEntries enumerates an archive's non-directory entry names in archive
// order.
func listEntries(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var names []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}
