// Package config provides configuration loading and structs for the kizami
// indexing pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kizami/internal/chunker"
	"github.com/hyperjump/kizami/internal/store"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Watch     WatchConfig     `yaml:"watch"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
}

// ChunkingConfig holds segmentation settings. Overlap is a pointer so an
// explicit zero in the file survives the merge over defaults.
type ChunkingConfig struct {
	ChunkSize          int    `yaml:"chunk_size"`
	Overlap            *int   `yaml:"overlap"`
	Strategy           string `yaml:"strategy"`
	PreserveParagraphs bool   `yaml:"preserve_paragraphs"`
	MinChunkSize       int    `yaml:"min_chunk_size"`
	MaxChunkSize       int    `yaml:"max_chunk_size"`
}

// ToChunker merges the partial yaml values over the chunker defaults.
func (c ChunkingConfig) ToChunker() chunker.Config {
	var o chunker.Overrides
	if c.ChunkSize != 0 {
		o.ChunkSize = &c.ChunkSize
	}
	o.Overlap = c.Overlap
	if c.Strategy != "" {
		s := chunker.Strategy(c.Strategy)
		o.Strategy = &s
	}
	if c.PreserveParagraphs {
		o.PreserveParagraphs = &c.PreserveParagraphs
	}
	if c.MinChunkSize != 0 {
		o.MinChunkSize = &c.MinChunkSize
	}
	if c.MaxChunkSize != 0 {
		o.MaxChunkSize = &c.MaxChunkSize
	}
	return chunker.MergeConfig(o)
}

// StoreConfig holds similarity store settings.
type StoreConfig struct {
	Metric     string  `yaml:"metric"`
	IndexType  string  `yaml:"index_type"`
	MaxResults int     `yaml:"max_results"`
	Threshold  float64 `yaml:"threshold"`
	Normalize  bool    `yaml:"normalize"`
}

// ToStore converts to the store's config, applying its defaults.
func (c StoreConfig) ToStore() store.Config {
	cfg := store.Config{
		Metric:     store.Metric(c.Metric),
		IndexType:  store.IndexType(c.IndexType),
		MaxResults: c.MaxResults,
		Threshold:  c.Threshold,
		Normalize:  c.Normalize,
	}
	store.ApplyDefaults(&cfg)
	return cfg
}

// EmbeddingConfig selects and sizes the embedder.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Dimensions int    `yaml:"dimensions"`
	Model      string `yaml:"model"`
	CacheSize  int    `yaml:"cache_size"`
}

// PipelineConfig holds indexing pipeline settings.
type PipelineConfig struct {
	Workers    int      `yaml:"workers"`
	Extensions []string `yaml:"extensions"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// SnapshotConfig holds the snapshot file location.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Snapshot.Path = expandPath(cfg.Snapshot.Path, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
