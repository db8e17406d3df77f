package models

import "time"

// BulkDocument is the bulk-index document shape exchanged with a downstream
// search engine. The wire contract is owned by that engine; this package only
// maps chunks to and from it.
type BulkDocument struct {
	Index  string     `json:"_index"`
	Type   string     `json:"_type"`
	ID     string     `json:"_id"`
	Source BulkSource `json:"_source"`
}

// BulkSource is the _source payload of a BulkDocument.
type BulkSource struct {
	Content       string                 `json:"content"`
	Vector        []float64              `json:"vector"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ChunkIndex    int                    `json:"chunk_index"`
	StartPosition int                    `json:"start_position"`
	EndPosition   int                    `json:"end_position"`
	Timestamp     time.Time              `json:"timestamp"`
}
