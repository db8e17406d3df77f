// Package store provides the in-memory similarity store: an insertion-ordered
// chunk collection with brute-force linear-scan search, snapshot persistence,
// and the external bulk-document mapping.
package store

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/models"
	"github.com/hyperjump/kizami/internal/vector"
)

// Metric selects the similarity score used by Search.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
	MetricManhattan Metric = "manhattan"
	MetricDot       Metric = "dot"
)

// IndexType names the search index in use. Only brute force is implemented.
type IndexType string

const IndexBruteForce IndexType = "bruteforce"

// Config holds store settings. Zero values take the stated defaults via
// ApplyDefaults.
type Config struct {
	Metric     Metric    `yaml:"metric"`
	IndexType  IndexType `yaml:"index_type"`
	MaxResults int       `yaml:"max_results"`
	Threshold  float64   `yaml:"threshold"`
	Normalize  bool      `yaml:"normalize"`
}

// DefaultConfig returns the store defaults: cosine metric, brute-force index,
// 10 results, no threshold.
func DefaultConfig() Config {
	return Config{
		Metric:     MetricCosine,
		IndexType:  IndexBruteForce,
		MaxResults: 10,
	}
}

// ApplyDefaults fills zero values in cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Metric == "" {
		cfg.Metric = MetricCosine
	}
	if cfg.IndexType == "" {
		cfg.IndexType = IndexBruteForce
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 10
	}
}

// ValidationError reports a malformed chunk rejected at insertion.
// Callers match it structurally with errors.As.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid chunk: %s %s", e.Field, e.Reason)
}

// Store owns a collection of chunks and performs linear similarity search
// over it. The chunk arena is the primary owner; the id map is a secondary
// index into it. The store assumes a single writer: reads may interleave with
// each other but not with concurrent writes.
type Store struct {
	cfg      Config
	embedder embedding.Embedder
	chunks   []*models.Chunk // insertion-ordered arena
	byID     map[string]int  // id -> arena position
	logger   *zap.Logger     // optional; when set, logs debug events
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store. The embedder is used by SearchByText and must match
// the one that produced the stored chunk vectors.
func New(cfg Config, embedder embedding.Embedder, opts ...Option) (*Store, error) {
	ApplyDefaults(&cfg)
	switch cfg.Metric {
	case MetricCosine, MetricEuclidean, MetricManhattan, MetricDot:
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", cfg.Metric)
	}
	if cfg.IndexType != IndexBruteForce {
		return nil, fmt.Errorf("unsupported index type %q", cfg.IndexType)
	}
	s := &Store{
		cfg:      cfg,
		embedder: embedder,
		byID:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the store's configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Add validates chunk and inserts it. When the store is configured to
// normalize, the chunk's vector is replaced with its unit-norm form; this is
// the only mutation a chunk undergoes after creation.
func (s *Store) Add(chunk *models.Chunk) error {
	if err := validate(chunk); err != nil {
		return err
	}
	if s.cfg.Normalize {
		chunk.Vector = vector.Normalize(chunk.Vector)
	}
	if pos, ok := s.byID[chunk.ID]; ok {
		s.chunks[pos] = chunk
		return nil
	}
	s.byID[chunk.ID] = len(s.chunks)
	s.chunks = append(s.chunks, chunk)
	return nil
}

// AddBatch inserts chunks in order, insertion is atomic per chunk: the first
// invalid chunk stops the batch with its ValidationError, and chunks inserted
// before it remain. Callers wanting to skip invalid chunks loop Add instead.
// batchSize only controls progress logging granularity.
func (s *Store) AddBatch(chunks []*models.Chunk, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	for i, chunk := range chunks {
		if err := s.Add(chunk); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if s.logger != nil && (i+1)%batchSize == 0 {
			s.logger.Debug("batch insertion progress",
				zap.Int("inserted", i+1),
				zap.Int("total", len(chunks)))
		}
	}
	return nil
}

// Get returns the chunk with the given id.
func (s *Store) Get(id string) (*models.Chunk, bool) {
	pos, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.chunks[pos], true
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	return len(s.chunks)
}

// All returns the stored chunks in insertion order. The slice is a copy but
// the chunks are shared.
func (s *Store) All() []*models.Chunk {
	out := make([]*models.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Remove deletes the chunk with the given id, reporting whether it existed.
func (s *Store) Remove(id string) bool {
	pos, ok := s.byID[id]
	if !ok {
		return false
	}
	s.chunks = append(s.chunks[:pos], s.chunks[pos+1:]...)
	delete(s.byID, id)
	for i := pos; i < len(s.chunks); i++ {
		s.byID[s.chunks[i].ID] = i
	}
	return true
}

// Clear removes all chunks.
func (s *Store) Clear() {
	s.chunks = nil
	s.byID = make(map[string]int)
}

// Search scores every stored chunk against query with the configured metric,
// keeps scores >= threshold, and returns the best topK in strictly descending
// score order. topK <= 0 falls back to the configured MaxResults.
func (s *Store) Search(query vector.Vector, topK int, threshold float64) ([]*models.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = s.cfg.MaxResults
	}
	results := make([]*models.SearchResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		score, err := s.score(query, chunk.Vector)
		if err != nil {
			return nil, err
		}
		if score < threshold {
			continue
		}
		results = append(results, &models.SearchResult{
			Chunk:     chunk,
			Score:     score,
			Distance:  s.distance(score),
			Relevance: models.RelevanceForScore(score),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchByText embeds text with the store's embedder and searches with the
// configured threshold.
func (s *Store) SearchByText(ctx context.Context, text string, topK int) ([]*models.SearchResult, error) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.Search(query, topK, s.cfg.Threshold)
}

// Stats summarizes the store contents.
type Stats struct {
	ChunkCount           int     `json:"chunk_count"`
	AverageDimension     float64 `json:"average_dimension"`
	EstimatedMemoryBytes int     `json:"estimated_memory_bytes"`
}

// GetStats returns chunk count, average vector dimension, and a rough memory
// estimate.
func (s *Store) GetStats() Stats {
	stats := Stats{ChunkCount: len(s.chunks)}
	if len(s.chunks) == 0 {
		return stats
	}
	dims := 0
	for _, chunk := range s.chunks {
		dims += chunk.Vector.Dim
		stats.EstimatedMemoryBytes += len(chunk.Content) + chunk.Vector.Dim*8 + 96
	}
	stats.AverageDimension = float64(dims) / float64(len(s.chunks))
	return stats
}

// score computes the similarity of query to v under the configured metric.
func (s *Store) score(query, v vector.Vector) (float64, error) {
	switch s.cfg.Metric {
	case MetricEuclidean:
		d, err := vector.EuclideanDistance(query, v)
		if err != nil {
			return 0, err
		}
		return 1 / (1 + d), nil
	case MetricManhattan:
		d, err := vector.ManhattanDistance(query, v)
		if err != nil {
			return 0, err
		}
		return 1 / (1 + d), nil
	case MetricDot:
		return vector.DotProduct(query, v)
	default:
		return vector.CosineSimilarity(query, v)
	}
}

// distance derives the reported distance from a score: 1-score for the
// bounded metrics, negated score for the unbounded dot product.
func (s *Store) distance(score float64) float64 {
	if s.cfg.Metric == MetricDot {
		return -score
	}
	return 1 - score
}

func validate(chunk *models.Chunk) error {
	if chunk == nil {
		return &ValidationError{Field: "chunk", Reason: "is nil"}
	}
	if chunk.ID == "" {
		return &ValidationError{Field: "id", Reason: "is empty"}
	}
	if chunk.Content == "" {
		return &ValidationError{Field: "content", Reason: "is empty"}
	}
	if chunk.Vector.Dim == 0 {
		return &ValidationError{Field: "vector", Reason: "is missing"}
	}
	if err := chunk.Vector.Validate(); err != nil {
		return &ValidationError{Field: "vector", Reason: err.Error()}
	}
	return nil
}
