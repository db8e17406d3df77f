package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kizami/internal/vector"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots", "store.json")

	src := newTestStore(t, DefaultConfig())
	want := map[string][]float64{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0, 0, 1},
	}
	for id, values := range want {
		if err := src.Add(makeChunk(id, "content "+id, values)); err != nil {
			t.Fatal(err)
		}
	}
	if err := src.SaveSnapshot(path); err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t, DefaultConfig())
	if err := dst.LoadSnapshot(path); err != nil {
		t.Fatal(err)
	}
	if dst.Len() != len(want) {
		t.Fatalf("loaded %d chunks, want %d", dst.Len(), len(want))
	}
	// Chunk set equality by id, content, and vector.
	for id, values := range want {
		got, ok := dst.Get(id)
		if !ok {
			t.Fatalf("chunk %s missing after load", id)
		}
		if got.Content != "content "+id {
			t.Errorf("chunk %s content=%q", id, got.Content)
		}
		if !vector.Equals(got.Vector, vector.New(values)) {
			t.Errorf("chunk %s vector changed in round trip", id)
		}
	}
}

func TestSnapshot_LoadReplacesState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")

	src := newTestStore(t, DefaultConfig())
	if err := src.Add(makeChunk("a", "from snapshot", []float64{1, 0})); err != nil {
		t.Fatal(err)
	}
	if err := src.SaveSnapshot(path); err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t, DefaultConfig())
	if err := dst.Add(makeChunk("old", "pre-existing", []float64{0, 1})); err != nil {
		t.Fatal(err)
	}
	if err := dst.LoadSnapshot(path); err != nil {
		t.Fatal(err)
	}
	if _, ok := dst.Get("old"); ok {
		t.Error("load should replace the previous contents")
	}
	if _, ok := dst.Get("a"); !ok {
		t.Error("snapshot chunk missing after load")
	}
}

func TestSnapshot_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, DefaultConfig())
	err := s.LoadSnapshot(path)
	if !errors.Is(err, ErrMalformedSnapshot) {
		t.Errorf("expected ErrMalformedSnapshot, got %v", err)
	}
}

func TestSnapshot_InvalidChunkKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.json")
	blob := `{"config":{"metric":"cosine"},"chunks":[{"id":"","content":"","vector":{"values":[],"dimension":0}}],"timestamp":"2024-01-01T00:00:00Z"}`
	if err := os.WriteFile(path, []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, DefaultConfig())
	if err := s.Add(makeChunk("keep", "content", []float64{1, 0})); err != nil {
		t.Fatal(err)
	}
	err := s.LoadSnapshot(path)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := s.Get("keep"); !ok {
		t.Error("previous state must survive a failed load")
	}
}

func TestSnapshot_MissingFile(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	if err := s.LoadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing snapshot file")
	}
}
