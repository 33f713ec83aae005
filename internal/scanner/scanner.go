// Package scanner diffs the current document listing against the persisted
// manifest to produce the indexing worklist.
package scanner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/dshills/docindex/internal/manifest"
)

// Status receives human-readable progress messages. Observational only.
type Status func(string)

// Result is the outcome of one scan.
type Result struct {
	ToIndex    []string // absolute paths needing indexing, sorted
	TotalFiles int      // regular files currently in the store
}

// Empty reports whether the document store holds no files at all, as
// opposed to holding files that are all already indexed. The two cases get
// different user-facing messages.
func (r Result) Empty() bool {
	return r.TotalFiles == 0
}

// AllIndexed reports whether every store file is already covered by the
// manifest at its current fingerprint.
func (r Result) AllIndexed() bool {
	return r.TotalFiles > 0 && len(r.ToIndex) == 0
}

// Scanner lists the document store and selects files whose fingerprint is
// absent from or differs from the manifest. It mutates neither.
type Scanner struct {
	docsDir   string
	manifests *manifest.Store
}

// New creates a scanner over docsDir using the given manifest store.
func New(docsDir string, manifests *manifest.Store) *Scanner {
	return &Scanner{docsDir: docsDir, manifests: manifests}
}

// Scan re-reads the document directory and returns the ordered subset of
// files needing indexing. force bypasses the manifest diff and selects
// everything.
func (s *Scanner) Scan(force bool, onStatus Status) (Result, error) {
	onStatus("scanning documents...")

	entries, err := os.ReadDir(s.docsDir)
	if os.IsNotExist(err) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("read docs dir: %w", err)
	}

	m := s.manifests.Load()

	var res Result
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		res.TotalFiles++
		path := filepath.Join(s.docsDir, e.Name())
		if !force {
			fp, err := manifest.Fingerprint(path)
			if err == nil && m[e.Name()] == fp {
				continue
			}
		}
		res.ToIndex = append(res.ToIndex, path)
	}
	sort.Strings(res.ToIndex)

	log.Printf("[scan] %d file(s) to index, %d already indexed",
		len(res.ToIndex), res.TotalFiles-len(res.ToIndex))
	for _, p := range res.ToIndex {
		log.Printf("[scan]   %s", filepath.Base(p))
	}
	return res, nil
}
