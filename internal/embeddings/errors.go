package embeddings

import "errors"

var (
	// ErrDependencyMissing indicates the FastEmbed/ONNX runtime is not
	// available in this binary or on this host.
	ErrDependencyMissing = errors.New("embedding dependency missing")

	// ErrUnknownModel indicates the configured model is not one FastEmbed ships.
	ErrUnknownModel = errors.New("unknown embedding model")

	// ErrEmbeddingFailed indicates the model failed to embed a batch.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
