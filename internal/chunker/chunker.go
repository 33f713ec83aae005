// Package chunker splits document text into bounded, overlapping slices
// with deterministic identifiers.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dshills/docindex/pkg/types"
)

// Default splitter geometry.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// Chunk is one bounded text slice of a document, the atomic unit of
// embedding and retrieval.
type Chunk struct {
	ID   string
	Text string
}

// Chunker is a deterministic fixed-size splitter: identical input with
// identical geometry always yields the identical chunk set, including IDs,
// which is what makes retried upserts idempotent.
type Chunker struct {
	size    int // chunk size in runes
	overlap int // runes carried over between adjacent chunks
}

// New creates a chunker. Non-positive or inconsistent geometry falls back
// to the defaults.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = 0
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split slices the document's text into overlapping chunks. Blank text
// yields no chunks. The stride is size−overlap, so every chunk except the
// first repeats the previous chunk's tail.
func (c *Chunker) Split(doc types.Document) []Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	runes := []rune(doc.Text)
	stride := c.size - c.overlap

	var chunks []Chunk
	for i := 0; i < len(runes); i += stride {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		text := string(runes[i:end])
		chunks = append(chunks, Chunk{
			ID:   chunkID(doc, i, text),
			Text: text,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// chunkID derives a stable identifier from the document's identity, the
// chunk's position, and its content. Re-splitting the same input reproduces
// the same ID set.
func chunkID(doc types.Document, offset int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00", doc.Source, doc.Metadata[types.MetaFilename], offset)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
