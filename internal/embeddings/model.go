package embeddings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fyrsmithlabs/textembed/internal/logging"
	"go.uber.org/zap"
)

// Model embeds batches of text.
type Model interface {
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector length.
	Dimension() int
	// Close releases the model's resources.
	Close() error
}

// ModelSpec identifies the model to load.
type ModelSpec struct {
	Name      string
	CacheDir  string
	MaxLength int
}

// ModelLoader constructs a Model, downloading weights into spec.CacheDir if
// they are not already there.
type ModelLoader func(ctx context.Context, spec ModelSpec) (Model, error)

// ModelState is the lifecycle state of a ModelHandle.
type ModelState int32

const (
	ModelUnloaded ModelState = iota
	ModelLoading
	ModelLoaded
	ModelFailed
)

func (s ModelState) String() string {
	switch s {
	case ModelLoading:
		return "loading"
	case ModelLoaded:
		return "loaded"
	case ModelFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

// DefaultCacheDir returns ~/.cache/textembed/models.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "textembed", "models")
}

// ModelHandle loads a model on first use and hands the same instance to
// every later caller.
//
// Concurrent first callers wait while one of them loads. A failed load is
// not remembered: the next Get tries again.
type ModelHandle struct {
	loader  ModelLoader
	logger  *logging.Logger
	metrics *Metrics

	// sem is held while loading or reading model; a channel so waiters can
	// give up when their context ends.
	sem   chan struct{}
	state atomic.Int32

	model  Model
	spec   ModelSpec
	warned string
}

// NewModelHandle creates an unloaded handle. A nil loader uses LoadFastEmbed.
func NewModelHandle(loader ModelLoader, logger *logging.Logger, metrics *Metrics) *ModelHandle {
	if loader == nil {
		loader = LoadFastEmbed
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ModelHandle{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		sem:     make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (h *ModelHandle) State() ModelState {
	return ModelState(h.state.Load())
}

// Get returns the loaded model, loading it with spec if necessary.
//
// Once a model is loaded it is kept even if later calls pass a different
// spec; the mismatch is logged once per model name.
func (h *ModelHandle) Get(ctx context.Context, spec ModelSpec) (Model, error) {
	select {
	case h.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-h.sem }()

	if h.model != nil {
		if spec.Name != h.spec.Name && spec.Name != h.warned {
			h.warned = spec.Name
			h.logger.Warn(ctx, "configured model differs from loaded model, keeping loaded model",
				zap.String("loaded", h.spec.Name),
				zap.String("configured", spec.Name))
		}
		return h.model, nil
	}

	h.state.Store(int32(ModelLoading))
	h.logger.Info(ctx, "loading embedding model",
		zap.String("model", spec.Name),
		zap.String("cache_dir", spec.CacheDir))

	m, err := h.loader(ctx, spec)
	h.metrics.RecordModelLoad(ctx, spec.Name, err)
	if err != nil {
		h.state.Store(int32(ModelFailed))
		return nil, fmt.Errorf("loading model %s: %w", spec.Name, err)
	}

	h.model = m
	h.spec = spec
	h.state.Store(int32(ModelLoaded))
	h.logger.Info(ctx, "embedding model loaded",
		zap.String("model", spec.Name),
		zap.Int("dimension", m.Dimension()))
	return m, nil
}

// Close releases the loaded model, if any, and returns the handle to
// ModelUnloaded.
func (h *ModelHandle) Close() error {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	if h.model == nil {
		return nil
	}
	err := h.model.Close()
	h.model = nil
	h.spec = ModelSpec{}
	h.warned = ""
	h.state.Store(int32(ModelUnloaded))
	return err
}
