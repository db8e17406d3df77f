package embedding

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/kizami/internal/vector"
)

// countingEmbedder counts Embed calls so cache hits can be verified.
type countingEmbedder struct {
	*FingerprintEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) (vector.Vector, error) {
	c.calls.Add(1)
	return c.FingerprintEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder_Hit(t *testing.T) {
	inner := &countingEmbedder{FingerprintEmbedder: NewFingerprintEmbedder(16)}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	a, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !vector.Equals(a, b) {
		t.Error("cached vector differs")
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner embedder called %d times, want 1", inner.calls.Load())
	}
}

func TestCachedEmbedder_Eviction(t *testing.T) {
	inner := &countingEmbedder{FingerprintEmbedder: NewFingerprintEmbedder(16)}
	c := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c"} {
		if _, err := c.Embed(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("cache size=%d, want 2", c.Len())
	}
	// "a" was evicted, so embedding it again hits the inner embedder.
	if _, err := c.Embed(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if inner.calls.Load() != 4 {
		t.Errorf("inner embedder called %d times, want 4", inner.calls.Load())
	}
}
