package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://family-exports/trees/2026/")
	require.NoError(t, err)
	assert.True(t, loc.IsS3())
	assert.Equal(t, "family-exports", loc.Bucket)
	assert.Equal(t, "trees/2026", loc.Path)
	assert.Equal(t, "s3://family-exports/trees/2026", loc.String())

	loc, err = ParseLocation("./out")
	require.NoError(t, err)
	assert.False(t, loc.IsS3())
	assert.Equal(t, "./out", loc.Path)

	_, err = ParseLocation("s3:///nobucket")
	assert.Error(t, err)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.Put(ctx, "trees/1.json", []byte(`{"id":1}`)))
	require.NoError(t, s.Put(ctx, "trees/2.yaml", []byte("id: 2\n")))
	require.NoError(t, s.Put(ctx, "other.txt", []byte("x")))

	data, err := s.Get(ctx, "trees/1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(data))

	keys, err := s.List(ctx, "trees")
	require.NoError(t, err)
	assert.Equal(t, []string{"trees/1.json", "trees/2.yaml"}, keys)

	_, err = s.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotExist)

	keys, err = s.List(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/b.json"))
	assert.Equal(t, "application/yaml", contentType("b.yml"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("tree.txt"))
}
