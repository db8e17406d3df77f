package chunker

import (
	"context"
	"errors"

	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/models"
)

// ErrStreamClosed is returned by Write after the stream has been closed.
var ErrStreamClosed = errors.New("stream chunker is closed")

const defaultStreamBuffer = 16

// StreamChunker is the continuous execution strategy: a single-threaded
// transform that grows a text buffer on every input fragment and peels
// complete chunks off the front as soon as they are guaranteed complete,
// pushing each downstream in strict FIFO order. A slow consumer stalls the
// producer through the bounded output channel; nothing buffers unboundedly.
type StreamChunker struct {
	chunker   *Chunker
	metadata  map[string]interface{}
	out       chan *models.Chunk
	buffer    string
	base      int // stream offset of buffer[0]
	nextIndex int
	closed    bool
}

// StreamOption configures a StreamChunker.
type StreamOption func(*StreamChunker)

// WithStreamBuffer sets the output channel capacity.
func WithStreamBuffer(n int) StreamOption {
	return func(s *StreamChunker) {
		if n > 0 {
			s.out = make(chan *models.Chunk, n)
		}
	}
}

// NewStream creates a streaming chunker. Chunks are delivered on Out; the
// channel is closed by Close after the remainder is flushed.
func NewStream(cfg Config, embedder embedding.Embedder, metadata map[string]interface{}, opts ...StreamOption) (*StreamChunker, error) {
	inner, err := New(cfg, embedder)
	if err != nil {
		return nil, err
	}
	s := &StreamChunker{
		chunker:  inner,
		metadata: metadata,
		out:      make(chan *models.Chunk, defaultStreamBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Out returns the channel on which completed chunks are delivered.
func (s *StreamChunker) Out() <-chan *models.Chunk {
	return s.out
}

// Write appends fragment to the buffer and emits every chunk that is already
// guaranteed complete. Emission blocks when the consumer is slow; ctx
// cancellation aborts a blocked send.
func (s *StreamChunker) Write(ctx context.Context, fragment string) error {
	if s.closed {
		return ErrStreamClosed
	}
	s.buffer += fragment
	for {
		spans := scan(s.buffer, s.chunker.cfg)
		// The first span is only final once a full chunk of text follows it;
		// otherwise more input could still move its boundary.
		if len(spans) < 2 || len(s.buffer)-spans[0].end < s.chunker.cfg.ChunkSize {
			return nil
		}
		sp := spans[0]
		if err := s.emit(ctx, sp); err != nil {
			return err
		}
		s.buffer = s.buffer[sp.next:]
		s.base += sp.next
	}
}

// Close flushes the remaining buffer through the same extraction rule, even
// if it is shorter than the chunk size, then closes the output channel.
func (s *StreamChunker) Close(ctx context.Context) error {
	if s.closed {
		return ErrStreamClosed
	}
	s.closed = true
	defer close(s.out)
	for _, sp := range scan(s.buffer, s.chunker.cfg) {
		if err := s.emit(ctx, sp); err != nil {
			return err
		}
	}
	s.buffer = ""
	return nil
}

func (s *StreamChunker) emit(ctx context.Context, sp span) error {
	chunk, err := s.chunker.materialize(ctx, s.buffer, sp, s.nextIndex, s.metadata)
	if err != nil {
		return err
	}
	chunk.StartPosition += s.base
	chunk.EndPosition += s.base
	s.nextIndex++
	select {
	case s.out <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
