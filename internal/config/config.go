// Package config holds the environment-driven configuration for the
// indexing pipeline. Values are parsed from the environment with
// caarlos0/env; callers load an optional .env file first (godotenv).
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config carries every pipeline knob. Defaults match a single-host
// deployment with a local TEI-style embedding server.
type Config struct {
	DocsDir    string `env:"DOCINDEX_DOCS_DIR" envDefault:"./data/docs"`
	IndexDir   string `env:"DOCINDEX_INDEX_DIR" envDefault:"./data/index"`
	Collection string `env:"DOCINDEX_COLLECTION" envDefault:"rag_documents"`

	// Workers × Concurrency is the total parallelism: the number of work
	// items the planner produces and the dispatch pool size.
	Workers     int `env:"DOCINDEX_WORKERS" envDefault:"8"`
	Concurrency int `env:"DOCINDEX_CONCURRENCY" envDefault:"4"`

	ChunkSize    int `env:"DOCINDEX_CHUNK_SIZE" envDefault:"512"`
	ChunkOverlap int `env:"DOCINDEX_CHUNK_OVERLAP" envDefault:"64"`

	EmbedURL       string        `env:"DOCINDEX_EMBED_URL" envDefault:"http://127.0.0.1:8000"`
	EmbedBatch     int           `env:"DOCINDEX_EMBED_BATCH" envDefault:"256"`
	EmbedMaxBatch  int           `env:"DOCINDEX_EMBED_MAX_BATCH" envDefault:"512"`
	StartupTimeout time.Duration `env:"DOCINDEX_STARTUP_TIMEOUT" envDefault:"120s"`

	UpsertBatch int `env:"DOCINDEX_UPSERT_BATCH" envDefault:"5000"`
	CacheSize   int `env:"DOCINDEX_CACHE_SIZE" envDefault:"10000"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers <= 0 || c.Concurrency <= 0 {
		return fmt.Errorf("config: workers and concurrency must be positive")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: chunk overlap must be in [0, chunk size)")
	}
	if c.EmbedBatch <= 0 || c.UpsertBatch <= 0 {
		return fmt.Errorf("config: batch sizes must be positive")
	}
	return nil
}

// Parallelism returns the total number of concurrent worker instances.
func (c *Config) Parallelism() int {
	return c.Workers * c.Concurrency
}
