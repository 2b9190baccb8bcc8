package embeddings

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/fyrsmithlabs/textembed/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestModelHandle_LoadsOnce(t *testing.T) {
	loader := newFakeLoader(4)
	h := NewModelHandle(loader.load, nil, nil)
	assert.Equal(t, ModelUnloaded, h.State())

	spec := ModelSpec{Name: "BAAI/bge-small-en-v1.5", CacheDir: t.TempDir()}
	m1, err := h.Get(context.Background(), spec)
	require.NoError(t, err)
	m2, err := h.Get(context.Background(), spec)
	require.NoError(t, err)

	assert.Same(t, m1, m2)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, ModelLoaded, h.State())
	assert.Equal(t, []ModelSpec{spec}, loader.specs)
}

func TestModelHandle_ConcurrentFirstUse(t *testing.T) {
	loader := newFakeLoader(4)
	loader.gate = make(chan struct{})
	h := NewModelHandle(loader.load, nil, nil)

	const callers = 32
	var wg sync.WaitGroup
	models := make([]Model, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			models[i], errs[i] = h.Get(context.Background(), ModelSpec{Name: "m"})
		}(i)
	}

	assert.Eventually(t, func() bool { return h.State() == ModelLoading }, time.Second, time.Millisecond)
	close(loader.gate)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, loader.model, models[i])
	}
}

func TestModelHandle_RetriesAfterFailure(t *testing.T) {
	loader := newFakeLoader(4)
	loader.failNext(fmt.Errorf("%w: no runtime", ErrDependencyMissing))
	h := NewModelHandle(loader.load, nil, nil)

	_, err := h.Get(context.Background(), ModelSpec{Name: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyMissing)
	assert.Contains(t, err.Error(), "loading model m")
	assert.Equal(t, ModelFailed, h.State())

	m, err := h.Get(context.Background(), ModelSpec{Name: "m"})
	require.NoError(t, err)
	assert.Same(t, loader.model, m)
	assert.Equal(t, ModelLoaded, h.State())
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestModelHandle_WaiterHonoursContext(t *testing.T) {
	loader := newFakeLoader(4)
	loader.gate = make(chan struct{})
	h := NewModelHandle(loader.load, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.Get(context.Background(), ModelSpec{Name: "m"})
	}()
	assert.Eventually(t, func() bool { return h.State() == ModelLoading }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Get(ctx, ModelSpec{Name: "m"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(loader.gate)
	<-done
	assert.Equal(t, ModelLoaded, h.State())
}

func TestModelHandle_KeepsFirstModel(t *testing.T) {
	tl := logging.NewTestLogger()
	loader := newFakeLoader(4)
	h := NewModelHandle(loader.load, tl.Logger, nil)

	_, err := h.Get(context.Background(), ModelSpec{Name: "first"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		m, err := h.Get(context.Background(), ModelSpec{Name: "second"})
		require.NoError(t, err)
		assert.Same(t, loader.model, m)
	}

	assert.Equal(t, int32(1), loader.calls.Load())
	const msg = "configured model differs from loaded model, keeping loaded model"
	assert.Equal(t, 1, tl.FilterMessage(msg).Len())
	tl.AssertLogged(t, zapcore.WarnLevel, "differs from loaded model")
	tl.AssertField(t, msg, "loaded", "first")
	tl.AssertField(t, msg, "configured", "second")
}

func TestModelHandle_Close(t *testing.T) {
	loader := newFakeLoader(4)
	h := NewModelHandle(loader.load, nil, nil)

	require.NoError(t, h.Close())

	_, err := h.Get(context.Background(), ModelSpec{Name: "m"})
	require.NoError(t, err)
	require.NoError(t, h.Close())

	assert.True(t, loader.model.closed.Load())
	assert.Equal(t, ModelUnloaded, h.State())

	_, err = h.Get(context.Background(), ModelSpec{Name: "m"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestModelHandle_LogsLoad(t *testing.T) {
	tl := logging.NewTestLogger()
	loader := newFakeLoader(384)
	h := NewModelHandle(loader.load, tl.Logger, nil)

	_, err := h.Get(context.Background(), ModelSpec{Name: "BAAI/bge-small-en-v1.5"})
	require.NoError(t, err)

	tl.AssertLogged(t, zapcore.InfoLevel, "loading embedding model")
	tl.AssertField(t, "embedding model loaded", "dimension", int64(384))
}

func TestModelHandle_DefaultLoader(t *testing.T) {
	h := NewModelHandle(nil, nil, nil)
	assert.NotNil(t, h.loader)
}

func TestModelState_String(t *testing.T) {
	assert.Equal(t, "unloaded", ModelUnloaded.String())
	assert.Equal(t, "loading", ModelLoading.String())
	assert.Equal(t, "loaded", ModelLoaded.String())
	assert.Equal(t, "failed", ModelFailed.String())
}

func TestKnownModels(t *testing.T) {
	names := KnownModels()
	assert.Contains(t, names, DefaultPrefetchModel)
	assert.IsIncreasing(t, names)

	dim, ok := ModelDimension("BAAI/bge-base-en-v1.5")
	assert.True(t, ok)
	assert.Equal(t, 768, dim)

	_, ok = ModelDimension("nope")
	assert.False(t, ok)
}

func TestDefaultCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("cache dir layout checked on linux only")
	}
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "textembed", "models"), DefaultCacheDir())
}
