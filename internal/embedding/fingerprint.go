package embedding

import (
	"context"

	"github.com/hyperjump/kizami/internal/vector"
)

// DefaultDimensions is the fingerprint dimension used when none is given.
const DefaultDimensions = 128

// FingerprintEmbedder is the default embedder: a deterministic character-code
// histogram, L2-normalized. It is a non-semantic placeholder for a real
// embedding model; the same text always produces the same vector.
type FingerprintEmbedder struct {
	dimensions int
}

// NewFingerprintEmbedder returns a fingerprint embedder of the given
// dimension, or DefaultDimensions when dimensions is not positive.
func NewFingerprintEmbedder(dimensions int) *FingerprintEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &FingerprintEmbedder{dimensions: dimensions}
}

// Embed returns the normalized character-code histogram of text.
func (e *FingerprintEmbedder) Embed(ctx context.Context, text string) (vector.Vector, error) {
	values := make([]float64, e.dimensions)
	for _, r := range text {
		values[int(r)%e.dimensions]++
	}
	return vector.Normalize(vector.Vector{Values: values, Dim: e.dimensions}), nil
}

// EmbedBatch calls Embed for each text.
func (e *FingerprintEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error) {
	out := make([]vector.Vector, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the fingerprint dimension.
func (e *FingerprintEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for FingerprintEmbedder.
func (e *FingerprintEmbedder) Close() error {
	return nil
}
