package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/kizami/internal/embedding"
)

func newTestLazy(t *testing.T) *LazyChunker {
	t.Helper()
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(80),
		Overlap:      intPtr(0),
		MinChunkSize: intPtr(10),
	})
	l, err := NewLazy(cfg, embedding.NewFingerprintEmbedder(16), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestLazyChunker_IndexWithoutMaterialization(t *testing.T) {
	l := newTestLazy(t)
	if l.Count() == 0 {
		t.Fatal("expected indexed chunks")
	}
	stats := l.Stats()
	if stats.MaterializedChunks != 0 {
		t.Errorf("nothing should be materialized yet, got %d", stats.MaterializedChunks)
	}
	if stats.TotalChunks != l.Count() {
		t.Errorf("TotalChunks=%d, Count=%d", stats.TotalChunks, l.Count())
	}
	if stats.EstimatedBytesSaved <= 0 {
		t.Error("expected a positive memory estimate before materialization")
	}
}

func TestLazyChunker_Memoization(t *testing.T) {
	l := newTestLazy(t)
	ctx := context.Background()
	a, err := l.Chunk(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Chunk(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second access should return the memoized chunk")
	}
	if a.ChunkIndex != 1 {
		t.Errorf("ChunkIndex=%d, want 1", a.ChunkIndex)
	}
	if stats := l.Stats(); stats.MaterializedChunks != 1 {
		t.Errorf("MaterializedChunks=%d, want 1", stats.MaterializedChunks)
	}
}

func TestLazyChunker_MatchesEagerRun(t *testing.T) {
	text := strings.Repeat("pack my box with five dozen liquor jugs ", 25)
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(70),
		Overlap:      intPtr(0),
		MinChunkSize: intPtr(10),
	})
	ctx := context.Background()
	eager, err := testChunker(t, cfg).Chunk(ctx, text, nil)
	if err != nil {
		t.Fatal(err)
	}
	l, err := NewLazy(cfg, embedding.NewFingerprintEmbedder(16), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if l.Count() != len(eager) {
		t.Fatalf("lazy indexes %d chunks, eager produced %d", l.Count(), len(eager))
	}
	for i := range eager {
		ch, err := l.Chunk(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		if ch.Content != eager[i].Content {
			t.Errorf("chunk %d: lazy %q, eager %q", i, ch.Content, eager[i].Content)
		}
		if ch.StartPosition != eager[i].StartPosition || ch.EndPosition != eager[i].EndPosition {
			t.Errorf("chunk %d positions differ", i)
		}
	}
}

func TestLazyChunker_RangeAndPrefetch(t *testing.T) {
	l := newTestLazy(t)
	ctx := context.Background()
	chunks, err := l.Range(ctx, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if err := l.Prefetch(ctx, 3, 4); err != nil {
		t.Fatal(err)
	}
	if stats := l.Stats(); stats.MaterializedChunks != 5 {
		t.Errorf("MaterializedChunks=%d, want 5", stats.MaterializedChunks)
	}
	if _, err := l.Range(ctx, 2, 1); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestLazyChunker_Evict(t *testing.T) {
	l := newTestLazy(t)
	ctx := context.Background()
	if _, err := l.Chunk(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if !l.Evict(0) {
		t.Error("Evict should report a cached chunk was dropped")
	}
	if l.Evict(0) {
		t.Error("second Evict should report nothing cached")
	}
	if _, err := l.Chunk(ctx, 0); err != nil {
		t.Errorf("chunk must be materializable again after eviction: %v", err)
	}
	l.EvictAll()
	if stats := l.Stats(); stats.MaterializedChunks != 0 {
		t.Errorf("MaterializedChunks=%d after EvictAll", stats.MaterializedChunks)
	}
}

func TestLazyChunker_OutOfRange(t *testing.T) {
	l := newTestLazy(t)
	if _, err := l.Chunk(context.Background(), l.Count()); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := l.Chunk(context.Background(), -1); err == nil {
		t.Error("expected out-of-range error")
	}
}
