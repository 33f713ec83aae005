package worker

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docindex/internal/chunker"
	"github.com/dshills/docindex/internal/extractor"
	"github.com/dshills/docindex/internal/manifest"
	"github.com/dshills/docindex/internal/vectorstore"
	"github.com/dshills/docindex/pkg/types"
)

// stubEmbedder returns a fixed-size vector per text and counts calls.
type stubEmbedder struct {
	maxBatch int
	calls    int
	batches  [][]string
	fail     error
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	s.batches = append(s.batches, texts)
	if s.fail != nil {
		return nil, s.fail
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1, 2}
	}
	return vectors, nil
}

func (s *stubEmbedder) MaxBatch() int                   { return s.maxBatch }
func (s *stubEmbedder) WaitReady(context.Context) error { return nil }
func (s *stubEmbedder) Close() error                    { return nil }

func newDeps(t *testing.T, emb *stubEmbedder) (Deps, *manifest.Store) {
	t.Helper()
	store, err := vectorstore.Open(t.TempDir(), "docs")
	require.NoError(t, err)
	manifests := manifest.NewStore(t.TempDir())
	return Deps{
		Extractor:   extractor.NewRegistry(),
		Chunker:     chunker.New(64, 8),
		Embedder:    emb,
		Store:       store,
		Manifests:   manifests,
		EmbedBatch:  16,
		UpsertBatch: 100,
	}, manifests
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeZip(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for entry, content := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestRunFileItem(t *testing.T) {
	emb := &stubEmbedder{maxBatch: 32}
	deps, manifests := newDeps(t, emb)
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "alpha content")
	b := writeDoc(t, dir, "b.txt", "beta content")

	w := New(3, deps)
	chunks, err := w.Run(context.Background(), types.WorkItem{Files: []string{a, b}})
	require.NoError(t, err)
	assert.Equal(t, 2, chunks)
	assert.Equal(t, StateDone, w.State())
	assert.Zero(t, w.Skipped())

	// Records landed in the store.
	assert.Equal(t, 2, deps.Store.Count())

	// Partial manifest covers both files, keyed by base name.
	partials, err := manifests.MergePartials()
	require.NoError(t, err)
	assert.Len(t, partials, 2)
	assert.Contains(t, partials, "a.txt")
	assert.Contains(t, partials, "b.txt")
}

func TestRunArchiveItem(t *testing.T) {
	emb := &stubEmbedder{maxBatch: 32}
	deps, manifests := newDeps(t, emb)
	dir := t.TempDir()
	zipPath := writeZip(t, dir, "big.zip", map[string]string{
		"one.txt": "first entry",
		"two.txt": "second entry",
	})

	w := New(0, deps)
	chunks, err := w.Run(context.Background(), types.WorkItem{
		Archive: zipPath,
		Entries: []string{"one.txt", "two.txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, chunks)
	assert.Equal(t, 2, deps.Store.Count())

	// Archive items record the archive itself, not its entries.
	partials, err := manifests.MergePartials()
	require.NoError(t, err)
	assert.Len(t, partials, 1)
	assert.Contains(t, partials, "big.zip")
}

func TestRunSkipsUnreadableAndBlank(t *testing.T) {
	emb := &stubEmbedder{maxBatch: 32}
	deps, _ := newDeps(t, emb)
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.txt", "real content")
	blank := writeDoc(t, dir, "blank.txt", "   \n ")
	missing := filepath.Join(dir, "gone.txt")

	w := New(1, deps)
	chunks, err := w.Run(context.Background(), types.WorkItem{Files: []string{good, blank, missing}})
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)
	assert.Equal(t, 2, w.Skipped())
}

func TestRunSkipsMissingArchiveEntries(t *testing.T) {
	emb := &stubEmbedder{maxBatch: 32}
	deps, _ := newDeps(t, emb)
	dir := t.TempDir()
	zipPath := writeZip(t, dir, "z.zip", map[string]string{"present.txt": "here"})

	w := New(2, deps)
	chunks, err := w.Run(context.Background(), types.WorkItem{
		Archive: zipPath,
		Entries: []string{"present.txt", "absent.txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)
	assert.Equal(t, 1, w.Skipped())
}

func TestRunRejectsInvalidItem(t *testing.T) {
	deps, _ := newDeps(t, &stubEmbedder{maxBatch: 32})
	w := New(0, deps)

	_, err := w.Run(context.Background(), types.WorkItem{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidWorkItem))
	assert.Equal(t, StateReady, w.State())
}

func TestRunEmbedFailureFailsUnit(t *testing.T) {
	emb := &stubEmbedder{maxBatch: 32, fail: types.ErrProviderFailed}
	deps, manifests := newDeps(t, emb)
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "content")

	w := New(5, deps)
	_, err := w.Run(context.Background(), types.WorkItem{Files: []string{a}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProviderFailed))

	// Nothing was persisted: no store writes, no partial manifest.
	assert.Zero(t, deps.Store.Count())
	partials, err := manifests.MergePartials()
	require.NoError(t, err)
	assert.Empty(t, partials)
}

func TestRunRejectsReusedInstance(t *testing.T) {
	deps, _ := newDeps(t, &stubEmbedder{maxBatch: 32})
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.txt", "content")
	item := types.WorkItem{Files: []string{a}}

	w := New(0, deps)
	_, err := w.Run(context.Background(), item)
	require.NoError(t, err)

	_, err = w.Run(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal transition")
}

func TestEmbedBatchesRespectProviderMax(t *testing.T) {
	emb := &stubEmbedder{maxBatch: 2}
	deps, _ := newDeps(t, emb)
	deps.Chunker = chunker.New(4, 0)
	deps.EmbedBatch = 100 // above the provider max, must be capped

	dir := t.TempDir()
	// 20 runes at size 4, overlap 0: five chunks, so three batches of <=2.
	a := writeDoc(t, dir, "a.txt", "abcdefghijklmnopqrst")

	w := New(0, deps)
	chunks, err := w.Run(context.Background(), types.WorkItem{Files: []string{a}})
	require.NoError(t, err)
	assert.Equal(t, 5, chunks)
	assert.Equal(t, 3, emb.calls)
	for _, batch := range emb.batches {
		assert.LessOrEqual(t, len(batch), 2)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateIdle:            "idle",
		StateReady:           "ready",
		StateProcessing:      "processing",
		StateFlushing:        "flushing",
		StateManifestWritten: "manifest-written",
		StateDone:            "done",
	} {
		assert.Equal(t, want, state.String())
	}
	assert.Equal(t, fmt.Sprintf("state(%d)", 42), State(42).String())
}
