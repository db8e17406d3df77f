package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/kizami/internal/embedding"
)

func intPtr(n int) *int { return &n }

func testChunker(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	c, err := New(cfg, embedding.NewFingerprintEmbedder(16))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestChunk_EmptyText(t *testing.T) {
	c := testChunker(t, DefaultConfig())
	chunks, err := c.Chunk(context.Background(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunk_WhitespaceOnly(t *testing.T) {
	c := testChunker(t, DefaultConfig())
	chunks, err := c.Chunk(context.Background(), "   \n\t  ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunk_BelowMinimum(t *testing.T) {
	// Default MinChunkSize is 100, so a short text yields nothing.
	c := testChunker(t, DefaultConfig())
	chunks, err := c.Chunk(context.Background(), "Short text", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for short text, got %d", len(chunks))
	}
}

func TestChunk_SingleChunkWindow(t *testing.T) {
	// MinChunkSize <= len <= ChunkSize yields exactly one chunk with the
	// trimmed text.
	text := "  " + strings.Repeat("abcd ", 40) + "  "
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < DefaultMinChunkSize || len(trimmed) > DefaultChunkSize {
		t.Fatalf("test text length %d outside window", len(trimmed))
	}
	c := testChunker(t, DefaultConfig())
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != trimmed {
		t.Errorf("content %q, want trimmed input", chunks[0].Content)
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("ChunkIndex=%d, want 0", chunks[0].ChunkIndex)
	}
}

func TestChunk_FixedNoOverlap(t *testing.T) {
	// 200 characters, chunk size 50, no overlap: 4 chunks, each at most 50.
	text := strings.Repeat("word ", 40)
	if len(text) != 200 {
		t.Fatalf("test text length %d, want 200", len(text))
	}
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(50),
		Overlap:      intPtr(0),
		MinChunkSize: intPtr(10),
	})
	c := testChunker(t, cfg)
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Content) > 50 {
			t.Errorf("chunk %d length %d exceeds chunk size", i, len(ch.Content))
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk %d ChunkIndex=%d", i, ch.ChunkIndex)
		}
		if ch.StartPosition >= ch.EndPosition {
			t.Errorf("chunk %d positions %d..%d", i, ch.StartPosition, ch.EndPosition)
		}
		if text[ch.StartPosition:ch.EndPosition] != ch.Content {
			t.Errorf("chunk %d content does not match its source positions", i)
		}
	}
}

func TestChunk_FixedOverlapSeedsNextChunk(t *testing.T) {
	// overlap 7 seeds max(2, ceil(7/3)) = 3 words into the next chunk.
	text := "aaaa bbbb cccc dddd eeee ffff gggg hhhh"
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(24),
		Overlap:      intPtr(7),
		MinChunkSize: intPtr(1),
	})
	c := testChunker(t, cfg)
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Content, "aaaa") {
		t.Errorf("chunk 0 content %q", chunks[0].Content)
	}
	if !strings.HasPrefix(chunks[1].Content, "cccc") {
		t.Errorf("chunk 1 should start with the overlap seed, got %q", chunks[1].Content)
	}
}

func TestChunk_SemanticKeepsSentencesWhole(t *testing.T) {
	text := "First sentence here. Second sentence follows! Does a third appear? It does."
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(30),
		Overlap:      intPtr(0),
		Strategy:     strategyPtr(StrategySemantic),
		MinChunkSize: intPtr(1),
	})
	c := testChunker(t, cfg)
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		last := ch.Content[len(ch.Content)-1]
		if last != '.' && last != '!' && last != '?' {
			t.Errorf("chunk %d %q does not end at a sentence boundary", i, ch.Content)
		}
	}
}

func TestChunk_SlidingWindows(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(10),
		Overlap:      intPtr(3),
		Strategy:     strategyPtr(StrategySliding),
		MinChunkSize: intPtr(1),
	})
	c := testChunker(t, cfg)
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(chunks))
	}
	if chunks[0].Content != "abcdefghij" {
		t.Errorf("window 0 = %q", chunks[0].Content)
	}
	if chunks[1].Content != "hijklmnopq" {
		t.Errorf("window 1 = %q", chunks[1].Content)
	}
	if chunks[3].Content != "vwxyz" {
		t.Errorf("window 3 = %q", chunks[3].Content)
	}
}

func TestChunk_AdaptiveKeepsParagraphsWhole(t *testing.T) {
	text := "para one is short.\n\npara two is a little longer than one.\n\nthree."
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(30),
		Overlap:      intPtr(0),
		Strategy:     strategyPtr(StrategyAdaptive),
		MinChunkSize: intPtr(1),
	})
	c := testChunker(t, cfg)
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Paragraph two exceeds the chunk size and must still be emitted whole.
	found := false
	for _, ch := range chunks {
		if ch.Content == "para two is a little longer than one." {
			found = true
		}
		if strings.Contains(ch.Content, "\n\n") {
			t.Errorf("chunk %q spans a paragraph break beyond its budget", ch.Content)
		}
	}
	if !found {
		t.Error("oversized paragraph was not emitted whole")
	}
}

func TestChunk_DropsShortTrailing(t *testing.T) {
	// The trailing remainder below MinChunkSize is dropped, not merged.
	text := strings.Repeat("word ", 40) + "tail"
	cfg := MergeConfig(Overrides{
		ChunkSize:    intPtr(50),
		Overlap:      intPtr(0),
		MinChunkSize: intPtr(10),
	})
	c := testChunker(t, cfg)
	chunks, err := c.Chunk(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, ch := range chunks {
		if len(ch.Content) < 10 {
			t.Errorf("chunk %q below minimum size was not dropped", ch.Content)
		}
		if strings.HasSuffix(ch.Content, "tail") && len(ch.Content) < 10 {
			t.Errorf("short trailing chunk should have been dropped")
		}
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overlap = cfg.ChunkSize
	if _, err := New(cfg, embedding.NewFingerprintEmbedder(16)); err == nil {
		t.Error("expected error for overlap >= chunk size")
	}
}

func strategyPtr(s Strategy) *Strategy { return &s }

func BenchmarkChunk_Fixed(b *testing.B) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 500)
	c, err := New(DefaultConfig(), embedding.NewFingerprintEmbedder(64))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Chunk(ctx, text, nil); err != nil {
			b.Fatal(err)
		}
	}
}
