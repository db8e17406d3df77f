package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/kizami/internal/vector"
)

func TestFingerprintEmbedder_Deterministic(t *testing.T) {
	e := NewFingerprintEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatal(err)
	}
	if !vector.Equals(a, b) {
		t.Error("same text should produce the same fingerprint")
	}
	if a.Dim != 64 {
		t.Errorf("Dim=%d, want 64", a.Dim)
	}
}

func TestFingerprintEmbedder_Normalized(t *testing.T) {
	e := NewFingerprintEmbedder(32)
	v, err := e.Embed(context.Background(), "some text with enough characters")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(vector.Norm(v)-1) > 1e-12 {
		t.Errorf("norm=%f, want 1", vector.Norm(v))
	}
}

func TestFingerprintEmbedder_EmptyText(t *testing.T) {
	e := NewFingerprintEmbedder(16)
	v, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !vector.Equals(v, vector.Zero(16)) {
		t.Error("empty text should fingerprint to the zero vector")
	}
}

func TestFingerprintEmbedder_DefaultDimensions(t *testing.T) {
	e := NewFingerprintEmbedder(0)
	if e.Dimensions() != DefaultDimensions {
		t.Errorf("Dimensions=%d, want %d", e.Dimensions(), DefaultDimensions)
	}
}

func TestEmbedBatch(t *testing.T) {
	e := NewFingerprintEmbedder(32)
	vecs, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
}
