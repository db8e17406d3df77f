package config

import "github.com/hyperjump/kizami/internal/embedding"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "fingerprint"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = embedding.DefaultDimensions
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 1
	}
	if cfg.Pipeline.Extensions == nil {
		cfg.Pipeline.Extensions = []string{".txt", ".md", ".rst"}
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "./kizami-snapshot.json"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = cfg.Pipeline.Extensions
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
