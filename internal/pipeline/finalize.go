package pipeline

import (
	"fmt"
	"log"
	"os"

	"github.com/dshills/docindex/pkg/types"
)

// finalize is the single-writer convergence phase. Workers upsert their
// own records during the embed phase, so finalize merges manifests only:
// it overlays every worker-scoped partial manifest on the previously
// persisted manifest (discarded on force), restricts the result to files
// currently present in the document store, writes the authoritative
// manifest, and removes the staging files.
//
// Sources covered by a failed unit are dropped from the merge even when a
// sibling unit recorded them (two slices of one archive, one failed), so
// they stay unindexed and are re-selected on the next run;
// previously-indexed files untouched by this run keep their entries.
// Re-running with unchanged partial inputs is a no-op for both collection
// and manifest.
func (p *Pipeline) finalize(force bool, chunks, failed, skipped int, failedSources map[string]bool, onStatus Status) (types.Result, error) {
	onStatus("finalizing index...")
	log.Printf("[finalize] merging worker manifests...")

	partials, err := p.manifests.MergePartials()
	if err != nil {
		return types.Result{}, err
	}

	merged := make(map[string]string)
	if !force {
		merged = p.manifests.Load()
	}
	for name, fp := range partials {
		merged[name] = fp
	}
	for name := range failedSources {
		delete(merged, name)
	}

	authoritative := make(map[string]string)
	entries, err := os.ReadDir(p.cfg.DocsDir)
	if err != nil && !os.IsNotExist(err) {
		return types.Result{}, fmt.Errorf("read docs dir: %w", err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if fp, ok := merged[e.Name()]; ok {
			authoritative[e.Name()] = fp
		}
	}

	if err := p.manifests.Write(authoritative); err != nil {
		return types.Result{}, err
	}
	if err := p.manifests.RemovePartials(); err != nil {
		return types.Result{}, err
	}

	result := types.Result{
		Chunks:      chunks,
		Files:       len(authoritative),
		FailedUnits: failed,
		Skipped:     skipped,
	}
	log.Printf("[finalize] %s", result.Summary())
	return result, nil
}

// Finalize merges leftover staging manifests without re-embedding, for
// recovery after an interrupted run. Holds the run lock like Reindex.
func (p *Pipeline) Finalize(onStatus Status) (string, error) {
	if onStatus == nil {
		onStatus = func(string) {}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	result, err := p.finalize(false, 0, 0, 0, nil, onStatus)
	if err != nil {
		return "", err
	}
	return result.Summary(), nil
}
