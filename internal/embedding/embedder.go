// Package embedding provides the pluggable text-to-vector boundary used to
// stamp chunks and queries, with a deterministic fingerprint default, an
// OpenAI-backed implementation, and an LRU cache wrapper.
package embedding

import (
	"context"

	"github.com/hyperjump/kizami/internal/vector"
)

// Embedder produces vector embeddings for text. Implementations must be
// replaceable without touching segmentation or store logic.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector.Vector, error)
	EmbedBatch(ctx context.Context, texts []string) ([]vector.Vector, error)
	Dimensions() int
	Close() error
}
