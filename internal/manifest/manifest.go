// Package manifest tracks which store files are indexed and at what
// fingerprint. The manifest is a flat JSON object (file name → fingerprint)
// with one writer (the finalize phase) and permissive readers: a missing or
// corrupt manifest reads as empty, never as an error.
//
// Workers never touch the shared manifest. Each writes its own
// manifest-worker-<id>.json staging file; finalize merges those and removes
// them.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	fileName      = "manifest.json"
	partialFormat = "manifest-worker-%d.json"
	partialGlob   = "manifest-worker-*.json"
)

// Store reads and writes manifests under a single index directory.
type Store struct {
	dir string
}

// NewStore creates a manifest store rooted at dir. The directory is created
// on first write, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Fingerprint returns the cheap change proxy for a file:
// "<mtime_ns>:<size>". Content-identical files that were re-touched
// re-index needlessly; files whose mtime or size changed are never
// silently skipped.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Load reads the authoritative manifest. Missing or corrupt files yield an
// empty map.
func (s *Store) Load() map[string]string {
	return readMap(filepath.Join(s.dir, fileName))
}

// Write persists the authoritative manifest. Single-writer: only the
// finalize phase calls this.
func (s *Store) Write(entries map[string]string) error {
	return writeMap(filepath.Join(s.dir, fileName), entries)
}

// WritePartial persists one worker's staging manifest, fingerprinting each
// of the given store file paths. Worker-namespaced file names keep
// concurrent writers from racing.
func (s *Store) WritePartial(workerID int, paths []string) error {
	entries := make(map[string]string, len(paths))
	for _, p := range paths {
		fp, err := Fingerprint(p)
		if err != nil {
			return err
		}
		entries[filepath.Base(p)] = fp
	}
	return writeMap(filepath.Join(s.dir, fmt.Sprintf(partialFormat, workerID)), entries)
}

// MergePartials reads every staging manifest and merges them into one map.
// Reads are permissive, like Load.
func (s *Store) MergePartials() (map[string]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, partialGlob))
	if err != nil {
		return nil, fmt.Errorf("glob partial manifests: %w", err)
	}
	sort.Strings(paths)

	merged := make(map[string]string)
	for _, p := range paths {
		for name, fp := range readMap(p) {
			merged[name] = fp
		}
	}
	return merged, nil
}

// RemovePartials deletes all staging manifests. Called after a successful
// merge.
func (s *Store) RemovePartials() error {
	paths, err := filepath.Glob(filepath.Join(s.dir, partialGlob))
	if err != nil {
		return fmt.Errorf("glob partial manifests: %w", err)
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func readMap(path string) map[string]string {
	entries := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return make(map[string]string)
	}
	return entries
}

func writeMap(path string, entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
