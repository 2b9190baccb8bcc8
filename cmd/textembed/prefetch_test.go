package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

func TestPrefetchCmd_Default(t *testing.T) {
	setupTestHome(t)
	m := &stubModel{dim: 384}
	var spec embeddings.ModelSpec
	stubLoader(t, func(_ context.Context, s embeddings.ModelSpec) (embeddings.Model, error) {
		spec = s
		return m, nil
	})

	out, err := executeCommand(t, "", "prefetch")
	require.NoError(t, err)

	assert.Contains(t, out, "Pre-downloading FastEmbed model: BAAI/bge-small-en-v1.5...")
	assert.Contains(t, out, "Successfully downloaded BAAI/bge-small-en-v1.5!")
	assert.Contains(t, out, "dimension 384")
	assert.Equal(t, embeddings.DefaultPrefetchModel, spec.Name)
	assert.Equal(t, embeddings.DefaultCacheDir(), spec.CacheDir)
	assert.True(t, m.closed)
}

func TestPrefetchCmd_IgnoresConfiguredModel(t *testing.T) {
	setupTestHome(t)
	t.Setenv("EMBEDDINGS_MODEL", "BAAI/bge-large-en-v1.5")

	var spec embeddings.ModelSpec
	stubLoader(t, func(_ context.Context, s embeddings.ModelSpec) (embeddings.Model, error) {
		spec = s
		return &stubModel{dim: 384}, nil
	})

	_, err := executeCommand(t, "", "prefetch")
	require.NoError(t, err)
	assert.Equal(t, embeddings.DefaultPrefetchModel, spec.Name)
}

func TestPrefetchCmd_Overrides(t *testing.T) {
	setupTestHome(t)
	cache := t.TempDir()
	var spec embeddings.ModelSpec
	stubLoader(t, func(_ context.Context, s embeddings.ModelSpec) (embeddings.Model, error) {
		spec = s
		return &stubModel{dim: 768}, nil
	})

	out, err := executeCommand(t, "", "prefetch", "--model", "BAAI/bge-base-en-v1.5", "--cache-dir", cache)
	require.NoError(t, err)

	assert.Contains(t, out, "Successfully downloaded BAAI/bge-base-en-v1.5!")
	assert.Equal(t, "BAAI/bge-base-en-v1.5", spec.Name)
	assert.Equal(t, cache, spec.CacheDir)
}

func TestPrefetchCmd_DependencyMissing(t *testing.T) {
	setupTestHome(t)
	stubLoader(t, func(context.Context, embeddings.ModelSpec) (embeddings.Model, error) {
		return nil, fmt.Errorf("%w: ONNX runtime not found", embeddings.ErrDependencyMissing)
	})

	out, err := executeCommand(t, "", "prefetch")
	require.NoError(t, err)
	assert.Contains(t, out, "FastEmbed not installed. Skipping pre-download.")
	assert.NotContains(t, out, "Successfully")
}

func TestPrefetchCmd_RuntimeMissingSkipsBeforeBanner(t *testing.T) {
	setupTestHome(t)
	stubLoader(t, func(context.Context, embeddings.ModelSpec) (embeddings.Model, error) {
		t.Error("loader should not run without a runtime")
		return nil, nil
	})
	stubCheck(t, fmt.Errorf("%w: ONNX runtime library not found", embeddings.ErrDependencyMissing))

	out, err := executeCommand(t, "", "prefetch")
	require.NoError(t, err)
	assert.Equal(t, "FastEmbed not installed. Skipping pre-download.\n", out)
}

func TestPrefetchCmd_RealCheckWithoutRuntime(t *testing.T) {
	setupTestHome(t)
	t.Setenv("ONNX_PATH", "/nonexistent/libonnxruntime.so")

	out, err := executeCommand(t, "", "prefetch")
	require.NoError(t, err)
	assert.Equal(t, "FastEmbed not installed. Skipping pre-download.\n", out)
}

func TestPrefetchCmd_StatusOnStdout(t *testing.T) {
	setupTestHome(t)
	stubLoader(t, func(context.Context, embeddings.ModelSpec) (embeddings.Model, error) {
		return &stubModel{dim: 384}, nil
	})

	stdout, stderr, err := executeCommandStdio(t, "prefetch")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pre-downloading FastEmbed model: BAAI/bge-small-en-v1.5...")
	assert.Contains(t, stdout, "Successfully downloaded BAAI/bge-small-en-v1.5!")
	assert.NotContains(t, stderr, "Successfully downloaded")
}

func TestPrefetchCmd_Failure(t *testing.T) {
	setupTestHome(t)
	stubLoader(t, func(context.Context, embeddings.ModelSpec) (embeddings.Model, error) {
		return nil, errors.New("connection reset by peer")
	})

	_, err := executeCommand(t, "", "prefetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset by peer")
}
