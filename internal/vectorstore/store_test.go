package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docindex/pkg/types"
)

func record(id string) types.Record {
	return types.Record{
		ID:       id,
		Vector:   []float32{0.1, 0.2, 0.3},
		Text:     "text for " + id,
		Metadata: map[string]string{types.MetaSource: "a.txt"},
	}
}

func records(n int) []types.Record {
	out := make([]types.Record, n)
	for i := range out {
		out[i] = record(fmt.Sprintf("id-%04d", i))
	}
	return out
}

func TestUpsertAndCount(t *testing.T) {
	s, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(context.Background(), records(10), 4))
	assert.Equal(t, 10, s.Count())
	assert.True(t, s.Contains(context.Background(), "id-0003"))
	assert.False(t, s.Contains(context.Background(), "missing"))
}

func TestUpsertIsIdempotentByID(t *testing.T) {
	s, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)

	recs := records(5)
	require.NoError(t, s.Upsert(context.Background(), recs, 0))
	require.NoError(t, s.Upsert(context.Background(), recs, 0))
	assert.Equal(t, 5, s.Count())
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	s, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), nil, 100))
	assert.Zero(t, s.Count())
}

func TestResetClearsCollection(t *testing.T) {
	s, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(context.Background(), records(3), 0))
	require.Equal(t, 3, s.Count())

	require.NoError(t, s.Reset())
	assert.Zero(t, s.Count())

	// The recreated collection accepts writes again.
	require.NoError(t, s.Upsert(context.Background(), records(2), 0))
	assert.Equal(t, 2, s.Count())
}

func TestOpenIsPersistent(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, "docs")
	require.NoError(t, err)
	require.NoError(t, s.Upsert(context.Background(), records(4), 0))

	reopened, err := Open(dir, "docs")
	require.NoError(t, err)
	assert.Equal(t, 4, reopened.Count())
	assert.True(t, reopened.Contains(context.Background(), "id-0000"))
}
