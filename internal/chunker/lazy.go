package chunker

import (
	"context"
	"fmt"

	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/models"
)

// LazyChunker is the lazy execution strategy. Construction scans the text
// once to record chunk offsets only (O(n) time, O(chunks) space); content and
// vectors are computed on first access and memoized per index. The instance
// is single-threaded by contract: materialization is idempotent and its only
// side effect is populating the instance's own cache.
type LazyChunker struct {
	chunker  *Chunker
	text     string
	metadata map[string]interface{}
	spans    []span
	cache    map[int]*models.Chunk
}

// LazyStats reports materialization progress and the memory not yet spent.
type LazyStats struct {
	TotalChunks         int `json:"total_chunks"`
	MaterializedChunks  int `json:"materialized_chunks"`
	EstimatedBytesSaved int `json:"estimated_bytes_saved"`
}

// NewLazy indexes text under the same boundary rules as Chunker.Chunk without
// materializing any chunk.
func NewLazy(cfg Config, embedder embedding.Embedder, text string, metadata map[string]interface{}, opts ...Option) (*LazyChunker, error) {
	inner, err := New(cfg, embedder, opts...)
	if err != nil {
		return nil, err
	}
	return &LazyChunker{
		chunker:  inner,
		text:     text,
		metadata: metadata,
		spans:    scan(text, inner.cfg),
		cache:    make(map[int]*models.Chunk),
	}, nil
}

// Count returns the total number of chunks the text indexes to.
func (l *LazyChunker) Count() int {
	return len(l.spans)
}

// Chunk materializes the chunk at index i, memoizing the result. Subsequent
// accesses to the same index return the cached chunk.
func (l *LazyChunker) Chunk(ctx context.Context, i int) (*models.Chunk, error) {
	if i < 0 || i >= len(l.spans) {
		return nil, fmt.Errorf("chunk index %d out of range [0,%d)", i, len(l.spans))
	}
	if ch, ok := l.cache[i]; ok {
		return ch, nil
	}
	ch, err := l.chunker.materialize(ctx, l.text, l.spans[i], i, l.metadata)
	if err != nil {
		return nil, err
	}
	l.cache[i] = ch
	return ch, nil
}

// Range materializes chunks [start,end) and returns them in order.
func (l *LazyChunker) Range(ctx context.Context, start, end int) ([]*models.Chunk, error) {
	if start < 0 || end > len(l.spans) || start > end {
		return nil, fmt.Errorf("range [%d,%d) out of bounds [0,%d)", start, end, len(l.spans))
	}
	chunks := make([]*models.Chunk, 0, end-start)
	for i := start; i < end; i++ {
		ch, err := l.Chunk(ctx, i)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// Prefetch materializes the given indices ahead of use.
func (l *LazyChunker) Prefetch(ctx context.Context, indices ...int) error {
	for _, i := range indices {
		if _, err := l.Chunk(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Evict drops the cached chunk at index i, reporting whether one was cached.
// The chunk can always be materialized again.
func (l *LazyChunker) Evict(i int) bool {
	if _, ok := l.cache[i]; !ok {
		return false
	}
	delete(l.cache, i)
	return true
}

// EvictAll drops every cached chunk.
func (l *LazyChunker) EvictAll() {
	l.cache = make(map[int]*models.Chunk)
}

// Stats reports processed-vs-total counts and an estimate of the memory not
// spent on unmaterialized chunks (content bytes plus vector storage).
func (l *LazyChunker) Stats() LazyStats {
	saved := 0
	perVector := l.chunker.embedder.Dimensions() * 8
	for i, s := range l.spans {
		if _, ok := l.cache[i]; !ok {
			saved += (s.end - s.start) + perVector
		}
	}
	return LazyStats{
		TotalChunks:         len(l.spans),
		MaterializedChunks:  len(l.cache),
		EstimatedBytesSaved: saved,
	}
}
