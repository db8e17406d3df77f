// Package indexer provides the ingestion pipeline from raw text and files
// into the similarity store.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kizami/internal/chunker"
	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/models"
	"github.com/hyperjump/kizami/internal/store"
)

// Indexer chunks, embeds, and stores text. With more than one worker it
// segments large inputs across a parallel chunker pool.
type Indexer struct {
	store    *store.Store
	chunker  *chunker.Chunker
	parallel *chunker.ParallelChunker
	logger   *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, chunks removed, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer writing into st. workers selects the execution
// strategy: 1 or less runs sequentially, more spreads segments across a worker
// pool.
func NewIndexer(st *store.Store, cfg chunker.Config, embedder embedding.Embedder, workers int, opts ...IndexerOption) (*Indexer, error) {
	idx := &Indexer{store: st}
	for _, opt := range opts {
		opt(idx)
	}
	var chunkerOpts []chunker.Option
	if idx.logger != nil {
		chunkerOpts = append(chunkerOpts, chunker.WithLogger(idx.logger))
	}
	c, err := chunker.New(cfg, embedder, chunkerOpts...)
	if err != nil {
		return nil, err
	}
	idx.chunker = c
	if workers > 1 {
		p, err := chunker.NewParallel(cfg, embedder, workers, chunkerOpts...)
		if err != nil {
			return nil, err
		}
		idx.parallel = p
	}
	return idx, nil
}

// Close releases the parallel worker pool, if any.
func (idx *Indexer) Close() {
	if idx.parallel != nil {
		idx.parallel.Close()
	}
}

const (
	metaKeyDocumentID  = "document_id"
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// IndexText chunks and embeds text and adds the chunks to the store. A fresh
// document_id is stamped into the metadata of every chunk. Returns the number
// of chunks stored.
func (idx *Indexer) IndexText(ctx context.Context, text string, metadata map[string]interface{}) (int, error) {
	if !utf8.ValidString(text) {
		return 0, fmt.Errorf("text is not valid UTF-8")
	}
	text = Preprocess(text)
	meta := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[metaKeyDocumentID] = uuid.New().String()

	chunks, err := idx.chunk(ctx, text, meta)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk text: %w", err)
	}
	if err := idx.store.AddBatch(chunks, 0); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer text indexed",
			zap.Int("chunks", len(chunks)),
			zap.Int("bytes", len(text)))
	}
	return len(chunks), nil
}

func (idx *Indexer) chunk(ctx context.Context, text string, metadata map[string]interface{}) ([]*models.Chunk, error) {
	if idx.parallel != nil {
		return idx.parallel.Chunk(ctx, text, metadata)
	}
	return idx.chunker.Chunk(ctx, text, metadata)
}

// IndexFile reads a file from path and indexes it. If allowedExts is non-nil
// and non-empty, the file's extension must be in the list (case-insensitive).
// Re-indexing a path first removes the chunks from the previous pass. Skips
// the file if it is already indexed with the same mtime and size. Returns the
// number of chunks stored.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (int, error) {
	if idx.logger != nil {
		idx.logger.Debug("indexer indexing file", zap.String("path", path))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	if idx.fileUnchanged(absPath, info) {
		if idx.logger != nil {
			idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		}
		return 0, nil
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(content) {
		return 0, fmt.Errorf("file %s is not valid UTF-8", absPath)
	}
	idx.DeleteFile(absPath)
	metadata := map[string]interface{}{
		metaKeySourcePath:  absPath,
		metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
		metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
	}
	n, err := idx.IndexText(ctx, string(content), metadata)
	if err != nil {
		return 0, err
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file indexed", zap.String("path", absPath), zap.Int("chunks", n))
	}
	return n, nil
}

// fileUnchanged reports whether the file is already indexed with the same
// mtime and size.
func (idx *Indexer) fileUnchanged(absPath string, info os.FileInfo) bool {
	for _, ch := range idx.store.All() {
		if ch.Metadata == nil || ch.Metadata[metaKeySourcePath] != absPath {
			continue
		}
		// Values are stored as strings to avoid JSON float64 precision loss
		// (UnixNano exceeds 53 bits).
		return metadataInt64(ch.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
			metadataInt64(ch.Metadata, metaKeySourceSize) == info.Size()
	}
	return false
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// IndexDirectory walks dir recursively and indexes each regular file whose
// extension is in allowedExts (if non-nil and non-empty; otherwise all files).
// Returns the number of files indexed and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		if _, indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			return indexErr
		}
		n++
		return nil
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteFile removes every chunk whose source_path metadata matches path.
// Returns the number of chunks removed.
func (idx *Indexer) DeleteFile(path string) int {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	removed := 0
	for _, ch := range idx.store.All() {
		if ch.Metadata != nil && ch.Metadata[metaKeySourcePath] == absPath {
			if idx.store.Remove(ch.ID) {
				removed++
			}
		}
	}
	if removed > 0 && idx.logger != nil {
		idx.logger.Debug("indexer file chunks removed",
			zap.String("path", absPath), zap.Int("chunks", removed))
	}
	return removed
}
