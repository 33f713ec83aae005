package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextPassthrough(t *testing.T) {
	r := NewRegistry()
	text, err := r.Extract("notes.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestUnknownExtensionUsesFallback(t *testing.T) {
	r := NewRegistry()
	text, err := r.Extract("data.log", []byte("line one\nline two"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestInvalidUTF8IsReplacedNotFatal(t *testing.T) {
	r := NewRegistry()
	text, err := r.Extract("blob.txt", []byte{0xff, 0xfe, 'o', 'k'})
	require.NoError(t, err)
	assert.Contains(t, text, "ok")
	assert.True(t, len(text) > 0)
}

func TestMarkdownStripsStructure(t *testing.T) {
	r := NewRegistry()
	md := "# Title\n\nSome *emphasis* and a [link](https://example.com).\n\n```\ncode block\n```\n"
	text, err := r.Extract("readme.md", []byte(md))
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "emphasis")
	assert.Contains(t, text, "link")
	assert.Contains(t, text, "code block")
	assert.NotContains(t, text, "# Title")
	assert.NotContains(t, text, "](")
	assert.NotContains(t, text, "```")
}

func TestCorruptPDFFailsCleanly(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract("broken.pdf", []byte("definitely not a pdf"))
	require.Error(t, err)
}

type upperExtractor struct{}

func (upperExtractor) Extract(_ string, data []byte) (string, error) {
	return string(data) + "!", nil
}

func TestRegisterOverridesDefault(t *testing.T) {
	r := NewRegistry()
	r.Register(".TXT", upperExtractor{})
	text, err := r.Extract("a.txt", []byte("custom"))
	require.NoError(t, err)
	assert.Equal(t, "custom!", text)
}
