//go:build !cgo

package embeddings

import (
	"context"
	"fmt"
)

// CheckFastEmbed always fails: FastEmbed needs cgo for the ONNX runtime.
func CheckFastEmbed() error {
	return fmt.Errorf("%w: binary built without cgo support, FastEmbed is unavailable", ErrDependencyMissing)
}

// LoadFastEmbed always fails: FastEmbed needs cgo for the ONNX runtime.
func LoadFastEmbed(_ context.Context, _ ModelSpec) (Model, error) {
	return nil, CheckFastEmbed()
}
