// Package worker implements the embed worker: per work item it extracts,
// chunks, and embeds documents, accumulates every record in memory, then
// bulk-upserts to the vector store and writes a worker-scoped partial
// manifest.
//
// Accumulating the whole item before any persistence write trades memory
// for fewer, larger writes, keeping the embedding provider busy instead of
// idling between small I/O operations.
package worker

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/docindex/internal/chunker"
	"github.com/dshills/docindex/internal/embedder"
	"github.com/dshills/docindex/internal/extractor"
	"github.com/dshills/docindex/internal/manifest"
	"github.com/dshills/docindex/internal/vectorstore"
	"github.com/dshills/docindex/pkg/types"
)

// entryLogInterval bounds progress noise inside large archives.
const entryLogInterval = 500

// Deps are the shared capabilities a worker instance borrows for one work
// item. The embedder and store handles are shared across concurrent
// instances; the store serializes its own writes.
type Deps struct {
	Extractor   *extractor.Registry
	Chunker     *chunker.Chunker
	Embedder    embedder.Embedder
	Store       *vectorstore.Store
	Manifests   *manifest.Store
	EmbedBatch  int // chunks per embed request, capped by the provider max
	UpsertBatch int // records per store write
}

// Worker processes exactly one work item and is then discarded.
type Worker struct {
	id    int
	deps  Deps
	state State

	pending []types.Record // accumulated for the whole item before flushing
	skipped int            // unreadable or blank documents dropped
}

// New creates a ready worker instance for one dispatch.
func New(id int, deps Deps) *Worker {
	w := &Worker{id: id, deps: deps, state: StateIdle}
	// Construction is the Idle -> Ready transition: all capabilities are
	// injected, nothing is loaded lazily.
	w.state = StateReady
	return w
}

// Skipped returns how many documents the worker dropped as unreadable or
// blank.
func (w *Worker) Skipped() int {
	return w.skipped
}

// Run processes one work item end to end and returns the number of chunks
// upserted. Any returned error marks this unit failed; sibling units are
// unaffected.
func (w *Worker) Run(ctx context.Context, item types.WorkItem) (int, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}
	if err := w.advance(StateProcessing); err != nil {
		return 0, err
	}

	var err error
	if item.IsArchive() {
		err = w.processArchive(ctx, item.Archive, item.Entries)
	} else {
		err = w.processFiles(ctx, item.Files)
	}
	if err != nil {
		return 0, err
	}

	if err := w.advance(StateFlushing); err != nil {
		return 0, err
	}
	if len(w.pending) > 0 {
		log.Printf("[embed] worker-%d: upserting %d chunks...", w.id, len(w.pending))
	}
	if err := w.deps.Store.Upsert(ctx, w.pending, w.deps.UpsertBatch); err != nil {
		return 0, fmt.Errorf("worker-%d: %w", w.id, err)
	}

	if err := w.advance(StateManifestWritten); err != nil {
		return 0, err
	}
	if err := w.deps.Manifests.WritePartial(w.id, item.Sources()); err != nil {
		return 0, fmt.Errorf("worker-%d: %w", w.id, err)
	}

	if err := w.advance(StateDone); err != nil {
		return 0, err
	}
	return len(w.pending), nil
}

// processFiles extracts, chunks, and embeds each regular file. Extraction
// failures and blank content skip the document, never the item.
func (w *Worker) processFiles(ctx context.Context, paths []string) error {
	for _, path := range paths {
		source := filepath.Base(path)
		log.Printf("[embed] worker-%d: processing %s...", w.id, source)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[embed] worker-%d: skipping %s: %v", w.id, source, err)
			w.skipped++
			continue
		}
		text, err := w.deps.Extractor.Extract(source, data)
		if err != nil || strings.TrimSpace(text) == "" {
			w.skipped++
			continue
		}
		if err := w.embedDocument(ctx, types.NewDocument(source, text)); err != nil {
			return err
		}
		log.Printf("[embed] worker-%d: %s done, %d chunks total", w.id, source, len(w.pending))
	}
	return nil
}

// processArchive extracts, chunks, and embeds one slice of an archive's
// entries. The archive is opened once per item; entries outside the slice
// belong to sibling workers.
func (w *Worker) processArchive(ctx context.Context, archive string, entries []string) error {
	source := filepath.Base(archive)
	log.Printf("[embed] worker-%d: processing %d entries from %s...", w.id, len(entries), source)

	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("worker-%d: open %s: %w", w.id, source, err)
	}
	defer func() { _ = r.Close() }()

	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		byName[f.Name] = f
	}

	for i, name := range entries {
		f, ok := byName[name]
		if !ok {
			w.skipped++
			continue
		}
		text, err := w.readEntry(f)
		if err != nil || strings.TrimSpace(text) == "" {
			w.skipped++
			continue
		}
		if err := w.embedDocument(ctx, types.NewEntryDocument(source, name, text)); err != nil {
			return err
		}
		if (i+1)%entryLogInterval == 0 {
			log.Printf("[embed] worker-%d: %d/%d entries, %d chunks", w.id, i+1, len(entries), len(w.pending))
		}
	}
	log.Printf("[embed] worker-%d: %s slice done, %d chunks", w.id, source, len(w.pending))
	return nil
}

func (w *Worker) readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return w.deps.Extractor.Extract(f.Name, data)
}

// embedDocument chunks one document and embeds the chunks in sub-batches
// sized to respect the provider's maximum batch size, accumulating the
// resulting records for the item-level flush.
func (w *Worker) embedDocument(ctx context.Context, doc types.Document) error {
	chunks := w.deps.Chunker.Split(doc)
	if len(chunks) == 0 {
		return nil
	}

	batch := w.deps.EmbedBatch
	if max := w.deps.Embedder.MaxBatch(); batch <= 0 || batch > max {
		batch = max
	}

	for i := 0; i < len(chunks); i += batch {
		end := i + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		sub := chunks[i:end]
		texts := make([]string, len(sub))
		for j, c := range sub {
			texts[j] = c.Text
		}
		vectors, err := w.deps.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("worker-%d: embed %s: %w", w.id, doc.Source, err)
		}
		for j, c := range sub {
			w.pending = append(w.pending, types.Record{
				ID:       c.ID,
				Vector:   vectors[j],
				Text:     c.Text,
				Metadata: doc.Metadata,
			})
		}
	}
	return nil
}
