package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/kizami/internal/embedding"
)

func TestStreamChunker_MatchesBatchSliding(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 20)
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(50),
		Overlap:      intPtr(0),
		Strategy:     strategyPtr(StrategySliding),
		MinChunkSize: intPtr(1),
	})
	ctx := context.Background()

	batch, err := testChunker(t, cfg).Chunk(ctx, text, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewStream(cfg, embedding.NewFingerprintEmbedder(16), nil, WithStreamBuffer(256))
	if err != nil {
		t.Fatal(err)
	}
	// Feed the text in uneven fragments.
	for i := 0; i < len(text); i += 37 {
		end := i + 37
		if end > len(text) {
			end = len(text)
		}
		if err := s.Write(ctx, text[i:end]); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	var streamed []string
	idx := 0
	lastStart := -1
	for ch := range s.Out() {
		if ch.ChunkIndex != idx {
			t.Errorf("chunk %d has index %d, want FIFO numbering", idx, ch.ChunkIndex)
		}
		if ch.StartPosition <= lastStart {
			t.Errorf("chunk %d start %d not increasing", idx, ch.StartPosition)
		}
		if text[ch.StartPosition:ch.EndPosition] != ch.Content {
			t.Errorf("chunk %d positions do not index into the full stream", idx)
		}
		lastStart = ch.StartPosition
		streamed = append(streamed, ch.Content)
		idx++
	}

	if len(streamed) != len(batch) {
		t.Fatalf("streamed %d chunks, batch produced %d", len(streamed), len(batch))
	}
	for i := range streamed {
		if streamed[i] != batch[i].Content {
			t.Errorf("chunk %d: streamed %q, batch %q", i, streamed[i], batch[i].Content)
		}
	}
}

func TestStreamChunker_FlushShortRemainder(t *testing.T) {
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(100),
		Overlap:      intPtr(0),
		MinChunkSize: intPtr(5),
	})
	s, err := NewStream(cfg, embedding.NewFingerprintEmbedder(16), nil, WithStreamBuffer(8))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Write(ctx, "a short remainder"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	var got []string
	for ch := range s.Out() {
		got = append(got, ch.Content)
	}
	if len(got) != 1 || got[0] != "a short remainder" {
		t.Errorf("flush produced %v", got)
	}
}

func TestStreamChunker_WriteAfterClose(t *testing.T) {
	s, err := NewStream(DefaultConfig(), embedding.NewFingerprintEmbedder(16), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(ctx, "more"); err != ErrStreamClosed {
		t.Errorf("expected ErrStreamClosed, got %v", err)
	}
}

func TestStreamChunker_Backpressure(t *testing.T) {
	// With a capacity-1 output channel and no consumer, the producer must
	// stall instead of buffering unboundedly; ctx cancellation unblocks it.
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(10),
		Overlap:      intPtr(0),
		Strategy:     strategyPtr(StrategySliding),
		MinChunkSize: intPtr(1),
	})
	s, err := NewStream(cfg, embedding.NewFingerprintEmbedder(16), nil, WithStreamBuffer(1))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Write(ctx, strings.Repeat("0123456789", 20))
	}()
	cancel()
	if err := <-errCh; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
