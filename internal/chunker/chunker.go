package chunker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/models"
)

// Chunker turns input text into an ordered sequence of chunks under the
// configured strategy, stamping each chunk with a vector from the embedder.
type Chunker struct {
	cfg      Config
	embedder embedding.Embedder
	logger   *zap.Logger // optional; when set, logs debug events
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chunker) { c.logger = l }
}

// New creates a chunker. The config is validated once here so every
// subsequent Chunk call can assume its invariants.
func New(cfg Config, embedder embedding.Embedder, opts ...Option) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	c := &Chunker{cfg: cfg, embedder: embedder}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the chunker's configuration.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk segments text into chunks. Empty or whitespace-only text yields nil.
// Text that fits within the chunk size yields a single chunk holding the
// trimmed text, or nil when it is below the minimum chunk size. Chunks below
// the minimum size are dropped, not merged into a neighbor.
func (c *Chunker) Chunk(ctx context.Context, text string, metadata map[string]interface{}) ([]*models.Chunk, error) {
	spans := scan(text, c.cfg)
	if len(spans) == 0 {
		return nil, nil
	}
	chunks := make([]*models.Chunk, 0, len(spans))
	for i, s := range spans {
		chunk, err := c.materialize(ctx, text, s, i, metadata)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if c.logger != nil {
		c.logger.Debug("chunked text",
			zap.String("strategy", string(c.cfg.Strategy)),
			zap.Int("input_len", len(text)),
			zap.Int("chunks", len(chunks)))
	}
	return chunks, nil
}

// materialize builds the chunk for span s with index idx.
func (c *Chunker) materialize(ctx context.Context, text string, s span, idx int, metadata map[string]interface{}) (*models.Chunk, error) {
	content := text[s.start:s.end]
	vec, err := c.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed chunk %d: %w", idx, err)
	}
	return &models.Chunk{
		ID:            uuid.New().String(),
		Content:       content,
		Vector:        vec,
		Metadata:      metadata,
		ChunkIndex:    idx,
		StartPosition: s.start,
		EndPosition:   s.end,
		CreatedAt:     time.Now(),
	}, nil
}
