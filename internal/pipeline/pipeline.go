// Package pipeline orchestrates the full reindex run: scan, plan, parallel
// embed, finalize, optional reload. At most one run is active per pipeline;
// a concurrent call blocks on the run lock until the in-flight run
// finishes.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docindex/internal/chunker"
	"github.com/dshills/docindex/internal/config"
	"github.com/dshills/docindex/internal/embedder"
	"github.com/dshills/docindex/internal/extractor"
	"github.com/dshills/docindex/internal/manifest"
	"github.com/dshills/docindex/internal/planner"
	"github.com/dshills/docindex/internal/scanner"
	"github.com/dshills/docindex/internal/vectorstore"
	"github.com/dshills/docindex/internal/worker"
)

// Status receives human-readable progress at phase boundaries and on each
// worker completion. Observational only.
type Status = scanner.Status

// ReloadFunc is the external collaborator's post-finalize hook, typically
// a search-index reload.
type ReloadFunc func() error

// Pipeline owns the run lock and wires the pipeline components together.
type Pipeline struct {
	mu sync.Mutex // held for the whole run; concurrent calls block, never interleave

	cfg       *config.Config
	manifests *manifest.Store
	scanner   *scanner.Scanner
	planner   *planner.Planner
	extractor *extractor.Registry
	chunker   *chunker.Chunker
	embedder  embedder.Embedder
	store     *vectorstore.Store
}

// New wires a pipeline from config plus the two injected capabilities: the
// embedding provider and the vector store handle shared by all workers.
func New(cfg *config.Config, emb embedder.Embedder, store *vectorstore.Store) *Pipeline {
	manifests := manifest.NewStore(cfg.IndexDir)
	return &Pipeline{
		cfg:       cfg,
		manifests: manifests,
		scanner:   scanner.New(cfg.DocsDir, manifests),
		planner:   planner.New(cfg.Parallelism()),
		extractor: extractor.NewRegistry(),
		chunker:   chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder:  emb,
		store:     store,
	}
}

// Reindex runs the full pipeline and returns a summary string. force
// discards the existing collection and manifest state and reprocesses
// everything; otherwise only files whose fingerprint changed or is absent
// are processed. Unit failures degrade the result, they do not abort it.
func (p *Pipeline) Reindex(ctx context.Context, force bool, onStatus Status, onReload ReloadFunc) (string, error) {
	if onStatus == nil {
		onStatus = func(string) {}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Printf("[pipeline] === scan ===")
	scanRes, err := p.scanner.Scan(force, onStatus)
	if err != nil {
		return "", err
	}
	if len(scanRes.ToIndex) == 0 {
		return p.emptyResult(scanRes), nil
	}

	if force {
		// With direct worker upserts the rebuild reset must precede
		// dispatch; finalize never touches collection contents.
		onStatus("rebuilding vector collection...")
		if err := p.store.Reset(); err != nil {
			return "", err
		}
	}

	log.Printf("[pipeline] === embed ===")
	chunks, failed, skipped, failedSources, err := p.embed(ctx, scanRes.ToIndex, onStatus)
	if err != nil {
		return "", err
	}

	log.Printf("[pipeline] === finalize ===")
	result, err := p.finalize(force, chunks, failed, skipped, failedSources, onStatus)
	if err != nil {
		return "", err
	}

	if onReload != nil {
		log.Printf("[pipeline] === reload ===")
		onStatus("reloading search index...")
		if err := onReload(); err != nil {
			return result.Summary(), fmt.Errorf("reload after finalize: %w", err)
		}
	}

	log.Printf("[pipeline] === done ===")
	return result.Summary(), nil
}

// embed plans the worklist and dispatches one worker instance per work
// item across a pool bounded by the configured parallelism. A unit's error
// is recorded, counted, and reported; it never cancels sibling units. The
// returned failedSources set holds the store file names covered by failed
// units, so finalize can keep them out of the authoritative manifest.
func (p *Pipeline) embed(ctx context.Context, files []string, onStatus Status) (chunks, failed, skipped int, failedSources map[string]bool, err error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.StartupTimeout)
	defer cancel()
	if err := p.embedder.WaitReady(probeCtx); err != nil {
		return 0, 0, 0, nil, err
	}

	items, docCount, err := p.planner.Plan(files)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	onStatus(fmt.Sprintf("embedding %s documents across %d workers...",
		humanize.Comma(int64(docCount)), len(items)))
	log.Printf("[embed] dispatching %d work item(s) for %s documents",
		len(items), humanize.Comma(int64(docCount)))

	type unitResult struct {
		chunks  int
		skipped int
		err     error
	}
	results := make([]unitResult, len(items))

	deps := worker.Deps{
		Extractor:   p.extractor,
		Chunker:     p.chunker,
		Embedder:    p.embedder,
		Store:       p.store,
		Manifests:   p.manifests,
		EmbedBatch:  p.cfg.EmbedBatch,
		UpsertBatch: p.cfg.UpsertBatch,
	}

	var (
		progressMu sync.Mutex
		total      int
	)

	var g errgroup.Group
	g.SetLimit(p.cfg.Parallelism())
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			w := worker.New(i, deps)
			n, err := w.Run(ctx, item)
			results[i] = unitResult{chunks: n, skipped: w.Skipped(), err: err}
			if err != nil {
				log.Printf("[embed] worker-%d failed: %v", i, err)
				return nil
			}
			progressMu.Lock()
			total += n
			running := total
			progressMu.Unlock()
			onStatus(fmt.Sprintf("worker-%d done: %s chunks (total: %s)",
				i, humanize.Comma(int64(n)), humanize.Comma(int64(running))))
			return nil
		})
	}
	_ = g.Wait() // unit errors are captured per slot, never returned here

	failedSources = make(map[string]bool)
	for i, r := range results {
		if r.err != nil {
			failed++
			// A failed archive slice poisons the whole archive: sibling
			// slices' partials must not mark it indexed.
			for _, src := range items[i].Sources() {
				failedSources[filepath.Base(src)] = true
			}
			continue
		}
		chunks += r.chunks
		skipped += r.skipped
	}
	log.Printf("[embed] all workers done: %s chunks, %d failed unit(s)",
		humanize.Comma(int64(chunks)), failed)
	return chunks, failed, skipped, failedSources, nil
}

// emptyResult distinguishes "store is empty" from "store has files, all
// already indexed" for user-facing messaging.
func (p *Pipeline) emptyResult(res scanner.Result) string {
	if res.Empty() {
		return fmt.Sprintf("No documents found in %s. Add files to the document store first.", p.cfg.DocsDir)
	}
	return "All documents already indexed (0 new chunks). Add new files or run reindex --force to rebuild."
}
