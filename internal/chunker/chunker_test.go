package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docindex/pkg/types"
)

func TestSplitBlankTextYieldsNoChunks(t *testing.T) {
	c := New(64, 8)
	assert.Nil(t, c.Split(types.NewDocument("a.txt", "")))
	assert.Nil(t, c.Split(types.NewDocument("a.txt", "   \n\t ")))
}

func TestSplitGeometry(t *testing.T) {
	c := New(10, 3)
	text := strings.Repeat("abcdefghij", 3) // 30 runes
	chunks := c.Split(types.NewDocument("a.txt", text))

	// Stride is size-overlap = 7: chunks start at 0, 7, 14, 21, 28.
	require.Len(t, chunks, 5)
	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "hijabcdefg", chunks[1].Text)
	assert.Equal(t, 10, len([]rune(chunks[1].Text)))

	// Adjacent chunks share the overlap tail.
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	assert.Equal(t, string(first[7:]), string(second[:3]))
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	c := New(512, 64)
	chunks := c.Split(types.NewDocument("a.txt", "short"))
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].Text)
}

func TestSplitIDsAreDeterministic(t *testing.T) {
	c := New(32, 4)
	doc := types.NewEntryDocument("big.zip", "entries/e1.txt", strings.Repeat("lorem ipsum ", 20))

	first := c.Split(doc)
	second := c.Split(doc)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestSplitIDsDifferBySourceEntryAndPosition(t *testing.T) {
	c := New(8, 0)
	text := "aaaaaaaabbbbbbbb" // two identical-shape chunks with different content

	a := c.Split(types.NewDocument("a.txt", text))
	b := c.Split(types.NewDocument("b.txt", text))
	require.Len(t, a, 2)
	require.Len(t, b, 2)

	// Same text in a different source gets different IDs.
	assert.NotEqual(t, a[0].ID, b[0].ID)

	// Same source, different entry gets different IDs.
	e1 := c.Split(types.NewEntryDocument("z.zip", "one.txt", text))
	e2 := c.Split(types.NewEntryDocument("z.zip", "two.txt", text))
	assert.NotEqual(t, e1[0].ID, e2[0].ID)

	// Identical content at different positions gets different IDs.
	same := c.Split(types.NewDocument("a.txt", "aaaaaaaaaaaaaaaa"))
	require.Len(t, same, 2)
	assert.NotEqual(t, same[0].ID, same[1].ID)
}

func TestSplitUnicodeBoundaries(t *testing.T) {
	c := New(4, 1)
	chunks := c.Split(types.NewDocument("u.txt", "héllø wörld"))
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 4)
		assert.True(t, strings.ToValidUTF8(ch.Text, "") == ch.Text)
	}
}

func TestNewFallsBackOnBadGeometry(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, DefaultChunkSize, c.size)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)

	c = New(100, 100)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
}
