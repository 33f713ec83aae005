// Package vectorstore persists embedded records in a chromem-go
// collection keyed by chunk ID. Upserts are idempotent by ID, so retried
// or partially repeated writes converge to the same state.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/dshills/docindex/pkg/types"
)

// DefaultUpsertBatch bounds the size of a single collection write.
const DefaultUpsertBatch = 5000

// Store wraps one persistent chromem collection. A single handle is shared
// by every concurrent worker in the process; the handle is not safe for
// multi-writer access, so Upsert serializes writes with a mutex.
type Store struct {
	mu   sync.Mutex
	db   *chromem.DB
	name string
	coll *chromem.Collection
}

// Open loads (or creates) the persistent collection under dir.
func Open(dir, collection string) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	coll, err := db.GetOrCreateCollection(collection, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", collection, err)
	}
	return &Store{db: db, name: collection, coll: coll}, nil
}

// Upsert writes records in batches of at most batchSize, bounding the size
// of any individual write. Safe to call from concurrent workers.
func (s *Store) Upsert(ctx context.Context, records []types.Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		docs := make([]chromem.Document, len(batch))
		for j, r := range batch {
			docs[j] = chromem.Document{
				ID:        r.ID,
				Metadata:  r.Metadata,
				Embedding: r.Vector,
				Content:   r.Text,
			}
		}
		if err := s.coll.AddDocuments(ctx, docs, 1); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
	}
	return nil
}

// Reset deletes and recreates the collection. Called before dispatch on a
// force rebuild; never during or after worker writes.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.name, err)
	}
	coll, err := s.db.CreateCollection(s.name, nil, precomputedOnly)
	if err != nil {
		return fmt.Errorf("recreate collection %s: %w", s.name, err)
	}
	s.coll = coll
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Count()
}

// Contains reports whether a record with the given ID is stored.
func (s *Store) Contains(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.coll.GetByID(ctx, id)
	return err == nil
}

// precomputedOnly guards against accidental re-embedding: every record
// arrives with its vector already computed.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errors.New("vectorstore: embeddings are precomputed")
}
