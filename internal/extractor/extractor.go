// Package extractor turns raw document bytes into plain text. Extraction
// is a pluggable capability keyed by file extension; formats without a
// registered extractor fall back to permissive UTF-8 decoding.
//
// Extraction never fails a batch: callers treat an error or blank result as
// "skip this document".
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extractor converts one document's raw bytes into plain text.
type Extractor interface {
	// Extract returns the plain text of data. name is the file or entry
	// name, used for diagnostics only.
	Extract(name string, data []byte) (string, error)
}

// Registry maps lower-cased file extensions (".pdf") to extractors.
type Registry struct {
	byExt    map[string]Extractor
	fallback Extractor
}

// NewRegistry returns the default registry: PDF and markdown extractors
// plus a permissive plain-text fallback for everything else.
func NewRegistry() *Registry {
	return &Registry{
		byExt: map[string]Extractor{
			".pdf": pdfExtractor{},
			".md":  markdownExtractor{},
		},
		fallback: plainExtractor{},
	}
}

// Register installs an extractor for an extension, replacing any default.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Extract dispatches on the name's extension.
func (r *Registry) Extract(name string, data []byte) (string, error) {
	if e, ok := r.byExt[strings.ToLower(filepath.Ext(name))]; ok {
		return e.Extract(name, data)
	}
	return r.fallback.Extract(name, data)
}

// plainExtractor decodes bytes as UTF-8, replacing invalid sequences. It
// mirrors the permissive decode-with-replacement the store's mixed content
// needs: a binary blob yields garbage text that chunks to nothing useful,
// but never an error.
type plainExtractor struct{}

func (plainExtractor) Extract(_ string, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
}

// pdfExtractor extracts the plain-text stream of a PDF held in memory.
type pdfExtractor struct{}

func (pdfExtractor) Extract(name string, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", name, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf %s: %w", name, err)
	}
	return buf.String(), nil
}

// markdownExtractor strips markdown structure by walking the goldmark AST
// and collecting text segments, so headings and code fences don't leak
// syntax into the chunks.
type markdownExtractor struct{}

func (markdownExtractor) Extract(name string, data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var sb strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(data))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse markdown %s: %w", name, err)
	}
	return sb.String(), nil
}
