package embeddings

import (
	"context"
	"crypto/sha256"
)

// EffectiveDim clamps dim to at least 1.
func EffectiveDim(dim int) int {
	if dim < 1 {
		return 1
	}
	return dim
}

// HashVector returns a dim-length vector derived from the SHA-256 digest of
// text. The digest is repeated until it covers dim bytes and each byte b
// becomes b/255, so every entry is in [0, 1]. dim below 1 is treated as 1.
func HashVector(text string, dim int) []float32 {
	dim = EffectiveDim(dim)
	digest := sha256.Sum256([]byte(text))

	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(digest[i%sha256.Size]) / 255.0
	}
	return vec
}

// HashEmbed applies HashVector to each text in order. An empty input yields
// an empty, non-nil batch.
func HashEmbed(texts []string, dim int) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = HashVector(text, dim)
	}
	return out
}

// HashEmbedder is a Model backed by HashVector.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder creates a HashEmbedder producing dim-length vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: EffectiveDim(dim)}
}

// Embed hashes every text.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return HashEmbed(texts, h.Dim), nil
}

// Dimension returns the vector length.
func (h *HashEmbedder) Dimension() int {
	return EffectiveDim(h.Dim)
}

// Close is a no-op.
func (h *HashEmbedder) Close() error {
	return nil
}
