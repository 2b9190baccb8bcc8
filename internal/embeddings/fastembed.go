//go:build cgo

package embeddings

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// embedBatchSize is the number of texts FastEmbed runs through ONNX at once.
const embedBatchSize = 256

// modelMapping maps accepted model identifiers to fastembed model constants.
var modelMapping = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
	"BAAI/bge-small-zh-v1.5":                 fastembed.BGESmallZH,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"fast-bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"fast-bge-small-en":                      fastembed.BGESmallEN,
	"fast-bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"fast-bge-base-en":                       fastembed.BGEBaseEN,
	"fast-bge-small-zh-v1.5":                 fastembed.BGESmallZH,
	"fast-all-MiniLM-L6-v2":                  fastembed.AllMiniLML6V2,
}

// fastEmbedModel is a Model running a local ONNX model.
type fastEmbedModel struct {
	mu        sync.RWMutex
	model     *fastembed.FlagEmbedding
	name      string
	dimension int
}

// CheckFastEmbed reports whether FastEmbed can run in this process. It
// returns an error wrapping ErrDependencyMissing when no ONNX runtime library
// is found.
func CheckFastEmbed() error {
	if GetONNXLibraryPath() == "" {
		return missingRuntimeError()
	}
	return nil
}

// LoadFastEmbed constructs a FastEmbed model, downloading its weights into
// spec.CacheDir on first use. It fails with ErrDependencyMissing when no
// ONNX runtime library can be found and with ErrUnknownModel when spec.Name
// is not a FastEmbed model.
func LoadFastEmbed(ctx context.Context, spec ModelSpec) (Model, error) {
	if err := CheckFastEmbed(); err != nil {
		return nil, err
	}
	libPath := GetONNXLibraryPath()
	if os.Getenv("ONNX_PATH") != libPath {
		if err := setONNXPathEnv(libPath); err != nil {
			return nil, fmt.Errorf("setting ONNX_PATH: %w", err)
		}
	}

	model, ok := modelMapping[spec.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownModel, spec.Name, strings.Join(KnownModels(), ", "))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheDir := spec.CacheDir
	if cacheDir == "" {
		cacheDir = DefaultCacheDir()
	}
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return nil, fmt.Errorf("creating model cache %s: %w", cacheDir, err)
	}

	showProgress := false
	opts := &fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		ShowDownloadProgress: &showProgress,
	}
	if spec.MaxLength > 0 {
		opts.MaxLength = spec.MaxLength
	}

	flagEmbed, err := fastembed.NewFlagEmbedding(opts)
	if err != nil {
		if isRuntimeLoadError(err) {
			return nil, fmt.Errorf("%w: loading ONNX runtime from %s: %w", ErrDependencyMissing, libPath, err)
		}
		return nil, fmt.Errorf("initializing FastEmbed: %w", err)
	}

	dim, _ := ModelDimension(spec.Name)
	return &fastEmbedModel{
		model:     flagEmbed,
		name:      spec.Name,
		dimension: dim,
	}, nil
}

// Embed embeds texts without a passage/query prefix.
func (m *fastEmbedModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.model == nil {
		return nil, fmt.Errorf("%w: model %s is closed", ErrEmbeddingFailed, m.name)
	}

	vectors, err := m.model.Embed(texts, embedBatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	return vectors, nil
}

func (m *fastEmbedModel) Dimension() int {
	return m.dimension
}

func (m *fastEmbedModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return nil
	}
	err := m.model.Destroy()
	m.model = nil
	return err
}
