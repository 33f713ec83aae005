// Package embedder generates vector embeddings for chunk text through an
// external provider. The provider is an injected capability: texts in,
// one vector per text out, with a provider-imposed maximum batch size the
// caller must respect by sub-batching.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder is the texts → vectors capability.
type Embedder interface {
	// EmbedBatch embeds up to MaxBatch texts, returning one vector per
	// text in input order. Larger batches fail with ErrBatchTooLarge.
	// Calls are not internally retried.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// MaxBatch returns the provider-imposed maximum batch size.
	MaxBatch() int

	// WaitReady polls the provider for reachability, returning
	// ErrServiceUnavailable if it does not come up before the context
	// deadline. Called once at run startup.
	WaitReady(ctx context.Context) error

	// Close releases provider resources.
	Close() error
}

// Cache is a bounded LRU of embeddings keyed by content hash. Concurrent
// workers share one cache; repeated chunks (archive boilerplate, retried
// units) skip provider round-trips.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates a cache holding up to maxLen vectors.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](10000)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of the cached vector for hash, if present. Copying
// keeps caller mutations out of the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	v, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores a vector under hash with automatic LRU eviction.
func (c *Cache) Set(hash string, v []float32) {
	c.cache.Add(hash, v)
}

// Len returns the current cache size.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// ComputeHash returns the SHA-256 hex digest of text, the cache key.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
