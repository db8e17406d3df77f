package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kizami/internal/models"
)

// ErrMalformedSnapshot is returned when a snapshot file cannot be parsed.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// snapshot is the single-blob persistence format: config, full chunk list,
// and write timestamp. There is no version field; loaders assume this shape.
type snapshot struct {
	Config    Config          `json:"config"`
	Chunks    []*models.Chunk `json:"chunks"`
	Timestamp time.Time       `json:"timestamp"`
}

// SaveSnapshot serializes the config and the full chunk list to path.
// The directory is created if needed.
func (s *Store) SaveSnapshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(snapshot{
		Config:    s.cfg,
		Chunks:    s.chunks,
		Timestamp: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("snapshot saved", zap.String("path", path), zap.Int("chunks", len(s.chunks)))
	}
	return nil
}

// LoadSnapshot reads a snapshot from path and replaces the store's config and
// contents. Every chunk passes through the normal Add path, so validation and
// optional normalization apply; on any failure the previous state is kept.
func (s *Store) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	ApplyDefaults(&snap.Config)

	prevCfg, prevChunks, prevByID := s.cfg, s.chunks, s.byID
	s.cfg = snap.Config
	s.chunks = nil
	s.byID = make(map[string]int)
	for i, chunk := range snap.Chunks {
		if err := s.Add(chunk); err != nil {
			s.cfg, s.chunks, s.byID = prevCfg, prevChunks, prevByID
			return fmt.Errorf("snapshot chunk %d: %w", i, err)
		}
	}
	if s.logger != nil {
		s.logger.Debug("snapshot loaded", zap.String("path", path), zap.Int("chunks", len(s.chunks)))
	}
	return nil
}
