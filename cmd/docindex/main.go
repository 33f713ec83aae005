package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dshills/docindex/internal/config"
	"github.com/dshills/docindex/internal/embedder"
	"github.com/dshills/docindex/internal/pipeline"
	"github.com/dshills/docindex/internal/vectorstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Progress goes to stdout; logs stay on stderr.
	log.SetOutput(os.Stderr)

	root := &cobra.Command{
		Use:           "docindex",
		Short:         "Parallel document-indexing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
	}

	var force bool
	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Scan the document store and index new or changed files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			summary, err := p.Reindex(cmd.Context(), force, printStatus, nil)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}
	reindexCmd.Flags().BoolVar(&force, "force", false, "discard the existing index and reprocess everything")

	finalizeCmd := &cobra.Command{
		Use:   "finalize",
		Short: "Merge leftover worker manifests without re-embedding",
		RunE: func(_ *cobra.Command, _ []string) error {
			p, err := buildPipeline()
			if err != nil {
				return err
			}
			summary, err := p.Finalize(printStatus)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}

	root.AddCommand(reindexCmd, finalizeCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("docindex: %v", err)
	}
}

func buildPipeline() (*pipeline.Pipeline, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.Open(filepath.Join(cfg.IndexDir, "chroma"), cfg.Collection)
	if err != nil {
		return nil, err
	}

	cache := embedder.NewCache(cfg.CacheSize)
	provider := embedder.NewTEIProvider(cfg.EmbedURL, cfg.EmbedMaxBatch, cache)

	return pipeline.New(cfg, provider, store), nil
}

func printStatus(msg string) {
	fmt.Println(msg)
}
