package store

import (
	"fmt"
	"time"

	"github.com/hyperjump/kizami/internal/models"
	"github.com/hyperjump/kizami/internal/vector"
)

const bulkDocType = "_doc"

// ExportBulkDocuments maps every stored chunk to the bulk-index document
// shape consumed by a downstream search engine, in insertion order.
func (s *Store) ExportBulkDocuments(indexName string) []*models.BulkDocument {
	docs := make([]*models.BulkDocument, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		values := make([]float64, len(chunk.Vector.Values))
		copy(values, chunk.Vector.Values)
		docs = append(docs, &models.BulkDocument{
			Index: indexName,
			Type:  bulkDocType,
			ID:    chunk.ID,
			Source: models.BulkSource{
				Content:       chunk.Content,
				Vector:        values,
				Metadata:      chunk.Metadata,
				ChunkIndex:    chunk.ChunkIndex,
				StartPosition: chunk.StartPosition,
				EndPosition:   chunk.EndPosition,
				Timestamp:     chunk.CreatedAt,
			},
		})
	}
	return docs
}

// ImportBulkDocuments performs the inverse mapping, tolerating missing
// optional fields (metadata, timestamp). Each document passes through the
// normal Add path, so validation applies.
func (s *Store) ImportBulkDocuments(docs []*models.BulkDocument) error {
	for i, doc := range docs {
		if doc == nil {
			return fmt.Errorf("document %d: %w", i, &ValidationError{Field: "document", Reason: "is nil"})
		}
		createdAt := doc.Source.Timestamp
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		chunk := &models.Chunk{
			ID:            doc.ID,
			Content:       doc.Source.Content,
			Vector:        vector.New(doc.Source.Vector),
			Metadata:      doc.Source.Metadata,
			ChunkIndex:    doc.Source.ChunkIndex,
			StartPosition: doc.Source.StartPosition,
			EndPosition:   doc.Source.EndPosition,
			CreatedAt:     createdAt,
		}
		if err := s.Add(chunk); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}
