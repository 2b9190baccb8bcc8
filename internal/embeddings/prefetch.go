package embeddings

import (
	"context"
	"fmt"
	"time"
)

// DefaultPrefetchModel is the model Prefetch downloads when none is given.
// It does not follow the runtime configuration.
const DefaultPrefetchModel = "BAAI/bge-small-en-v1.5"

// PrefetchOptions configures Prefetch. Zero values use the defaults.
type PrefetchOptions struct {
	Model     string
	CacheDir  string
	MaxLength int
	// Loader defaults to LoadFastEmbed.
	Loader ModelLoader
}

// PrefetchResult describes a completed prefetch.
type PrefetchResult struct {
	Model     string
	CacheDir  string
	Dimension int
	Duration  time.Duration
}

// Prefetch loads the model once so its weights land in the cache, then
// releases it. Errors wrap ErrDependencyMissing when the runtime is absent.
func Prefetch(ctx context.Context, opts PrefetchOptions) (PrefetchResult, error) {
	if opts.Model == "" {
		opts.Model = DefaultPrefetchModel
	}
	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir()
	}
	if opts.Loader == nil {
		opts.Loader = LoadFastEmbed
	}

	start := time.Now()
	m, err := opts.Loader(ctx, ModelSpec{
		Name:      opts.Model,
		CacheDir:  opts.CacheDir,
		MaxLength: opts.MaxLength,
	})
	if err != nil {
		return PrefetchResult{}, fmt.Errorf("prefetching %s: %w", opts.Model, err)
	}

	res := PrefetchResult{
		Model:     opts.Model,
		CacheDir:  opts.CacheDir,
		Dimension: m.Dimension(),
		Duration:  time.Since(start),
	}
	if err := m.Close(); err != nil {
		return res, fmt.Errorf("releasing %s: %w", opts.Model, err)
	}
	return res, nil
}
