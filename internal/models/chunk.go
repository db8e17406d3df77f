// Package models defines core data structures for chunks, search results,
// and the external wire shapes.
package models

import (
	"time"

	"github.com/hyperjump/kizami/internal/vector"
)

// Chunk is a bounded unit of text with its attached vector and position
// metadata. A chunk is created once by a segmentation run and is immutable
// afterwards, except for vector normalization performed by the store at
// insertion time.
type Chunk struct {
	ID            string                 `json:"id"`
	Content       string                 `json:"content"`
	Vector        vector.Vector          `json:"vector"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ChunkIndex    int                    `json:"chunk_index"`
	StartPosition int                    `json:"start_position"`
	EndPosition   int                    `json:"end_position"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Relevance buckets a similarity score for display and filtering.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// RelevanceForScore returns the bucket for a score: high >= 0.8,
// medium >= 0.5, low otherwise.
func RelevanceForScore(score float64) Relevance {
	switch {
	case score >= 0.8:
		return RelevanceHigh
	case score >= 0.5:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}

// SearchResult is one ranked hit from a similarity search.
type SearchResult struct {
	Chunk     *Chunk    `json:"chunk"`
	Score     float64   `json:"score"`
	Distance  float64   `json:"distance"`
	Relevance Relevance `json:"relevance"`
}
