package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefetch_Defaults(t *testing.T) {
	loader := newFakeLoader(384)

	res, err := Prefetch(context.Background(), PrefetchOptions{Loader: loader.load})
	require.NoError(t, err)

	assert.Equal(t, DefaultPrefetchModel, res.Model)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", res.Model)
	assert.Equal(t, DefaultCacheDir(), res.CacheDir)
	assert.Equal(t, 384, res.Dimension)
	assert.True(t, loader.model.closed.Load())

	require.Len(t, loader.specs, 1)
	assert.Equal(t, DefaultPrefetchModel, loader.specs[0].Name)
}

func TestPrefetch_Overrides(t *testing.T) {
	loader := newFakeLoader(768)
	dir := t.TempDir()

	res, err := Prefetch(context.Background(), PrefetchOptions{
		Model:     "BAAI/bge-base-en-v1.5",
		CacheDir:  dir,
		MaxLength: 128,
		Loader:    loader.load,
	})
	require.NoError(t, err)

	assert.Equal(t, "BAAI/bge-base-en-v1.5", res.Model)
	assert.Equal(t, dir, res.CacheDir)
	assert.Equal(t, ModelSpec{Name: "BAAI/bge-base-en-v1.5", CacheDir: dir, MaxLength: 128}, loader.specs[0])
}

func TestPrefetch_LoaderError(t *testing.T) {
	loader := newFakeLoader(384)
	network := errors.New("connection reset")
	loader.failNext(network)

	_, err := Prefetch(context.Background(), PrefetchOptions{Loader: loader.load})
	require.Error(t, err)
	assert.ErrorIs(t, err, network)
	assert.NotErrorIs(t, err, ErrDependencyMissing)
	assert.Contains(t, err.Error(), DefaultPrefetchModel)
}

func TestPrefetch_DependencyMissing(t *testing.T) {
	withoutONNX(t)

	_, err := Prefetch(context.Background(), PrefetchOptions{CacheDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrDependencyMissing)
}
