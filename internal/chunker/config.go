// Package chunker provides the segmentation engine: four chunking strategies
// over a shared span scanner, plus streaming, parallel, and lazy execution
// wrappers around the same algorithm.
package chunker

import "fmt"

// Strategy selects how text is split into chunks.
type Strategy string

const (
	// StrategyFixed accumulates whitespace-delimited words up to the chunk
	// size, with word-granularity overlap between neighbors.
	StrategyFixed Strategy = "fixed"
	// StrategySemantic accumulates whole sentences and never splits inside
	// one.
	StrategySemantic Strategy = "semantic"
	// StrategySliding emits character-granularity windows advanced by
	// ChunkSize-Overlap.
	StrategySliding Strategy = "sliding"
	// StrategyAdaptive accumulates whole paragraphs; paragraphs larger than
	// the chunk size are emitted whole.
	StrategyAdaptive Strategy = "adaptive"
)

// Defaults applied by DefaultConfig and MergeConfig.
const (
	DefaultChunkSize    = 512
	DefaultOverlap      = 50
	DefaultMinChunkSize = 100
	DefaultMaxChunkSize = 1024
)

// Config holds segmentation parameters. Invariants: Overlap < ChunkSize and
// MinChunkSize <= ChunkSize <= MaxChunkSize; Validate rejects violations.
type Config struct {
	ChunkSize          int      `yaml:"chunk_size"`
	Overlap            int      `yaml:"overlap"`
	Strategy           Strategy `yaml:"strategy"`
	PreserveParagraphs bool     `yaml:"preserve_paragraphs"`
	MinChunkSize       int      `yaml:"min_chunk_size"`
	MaxChunkSize       int      `yaml:"max_chunk_size"`
}

// DefaultConfig returns the stated defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    DefaultChunkSize,
		Overlap:      DefaultOverlap,
		Strategy:     StrategyFixed,
		MinChunkSize: DefaultMinChunkSize,
		MaxChunkSize: DefaultMaxChunkSize,
	}
}

// Overrides is a partial configuration. Nil fields take their defaults, so an
// explicit zero (e.g. Overlap 0) survives the merge.
type Overrides struct {
	ChunkSize          *int
	Overlap            *int
	Strategy           *Strategy
	PreserveParagraphs *bool
	MinChunkSize       *int
	MaxChunkSize       *int
}

// MergeConfig merges o over the defaults field by field and returns the
// result. It is a pure constructor; o is not modified.
func MergeConfig(o Overrides) Config {
	cfg := DefaultConfig()
	if o.ChunkSize != nil {
		cfg.ChunkSize = *o.ChunkSize
	}
	if o.Overlap != nil {
		cfg.Overlap = *o.Overlap
	}
	if o.Strategy != nil {
		cfg.Strategy = *o.Strategy
	}
	if o.PreserveParagraphs != nil {
		cfg.PreserveParagraphs = *o.PreserveParagraphs
	}
	if o.MinChunkSize != nil {
		cfg.MinChunkSize = *o.MinChunkSize
	}
	if o.MaxChunkSize != nil {
		cfg.MaxChunkSize = *o.MaxChunkSize
	}
	return cfg
}

// Validate checks the config invariants.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("overlap %d must be non-negative and smaller than chunk size %d", c.Overlap, c.ChunkSize)
	}
	switch c.Strategy {
	case StrategyFixed, StrategySemantic, StrategySliding, StrategyAdaptive:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("min chunk size must be non-negative, got %d", c.MinChunkSize)
	}
	if c.MinChunkSize > c.ChunkSize {
		return fmt.Errorf("min chunk size %d exceeds chunk size %d", c.MinChunkSize, c.ChunkSize)
	}
	if c.MaxChunkSize > 0 && c.ChunkSize > c.MaxChunkSize {
		return fmt.Errorf("chunk size %d exceeds max chunk size %d", c.ChunkSize, c.MaxChunkSize)
	}
	return nil
}
