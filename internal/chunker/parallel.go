package chunker

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kizami/internal/embedding"
	"github.com/hyperjump/kizami/internal/models"
)

// WorkerError reports that a segment task failed. Any single failure is fatal
// to the whole call; there are no partial results and no automatic retry.
type WorkerError struct {
	Segment int
	Err     error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("segment %d worker failed: %v", e.Segment, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// ParallelChunker is the parallel execution strategy: a bounded worker pool
// created once per instance and reused across calls. Each call splits the
// input into contiguous segments at whitespace boundaries and runs the
// ordinary chunking algorithm on every segment independently. Because workers
// do not coordinate chunk boundaries, output is not guaranteed byte-identical
// to a single-threaded run over the same input.
type ParallelChunker struct {
	chunker   *Chunker
	workers   int
	tasks     chan parallelTask
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type parallelTask struct {
	ctx      context.Context
	seg      int
	text     string
	metadata map[string]interface{}
	result   chan<- segmentResult
}

type segmentResult struct {
	seg    int
	chunks []*models.Chunk
	err    error
}

// NewParallel creates a parallel chunker with
// min(requestedWorkers, available parallelism) workers, at least one. The
// pool runs until Close.
func NewParallel(cfg Config, embedder embedding.Embedder, requestedWorkers int, opts ...Option) (*ParallelChunker, error) {
	inner, err := New(cfg, embedder, opts...)
	if err != nil {
		return nil, err
	}
	n := requestedWorkers
	if max := runtime.NumCPU(); n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	p := &ParallelChunker{
		chunker: inner,
		workers: n,
		tasks:   make(chan parallelTask),
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// Workers returns the pool size.
func (p *ParallelChunker) Workers() int {
	return p.workers
}

// Chunk segments text using the worker pool. The call is a join barrier: it
// returns only after every segment task has finished. After the join, chunks
// are concatenated in segment order with offsets rebased to the full text and
// chunk indices renumbered globally with no gaps.
func (p *ParallelChunker) Chunk(ctx context.Context, text string, metadata map[string]interface{}) ([]*models.Chunk, error) {
	segs := splitSegments(text, p.workers)
	if len(segs) == 0 {
		return nil, nil
	}
	results := make(chan segmentResult, len(segs))
	for i, seg := range segs {
		p.tasks <- parallelTask{ctx: ctx, seg: i, text: seg.text, metadata: metadata, result: results}
	}
	collected := make([][]*models.Chunk, len(segs))
	var failure error
	for range segs {
		r := <-results
		if r.err != nil && failure == nil {
			failure = &WorkerError{Segment: r.seg, Err: r.err}
		}
		collected[r.seg] = r.chunks
	}
	if failure != nil {
		return nil, failure
	}
	var out []*models.Chunk
	for i, chunks := range collected {
		for _, ch := range chunks {
			ch.StartPosition += segs[i].base
			ch.EndPosition += segs[i].base
			ch.ChunkIndex = len(out)
			out = append(out, ch)
		}
	}
	if p.chunker.logger != nil {
		p.chunker.logger.Debug("parallel chunking complete",
			zap.Int("segments", len(segs)),
			zap.Int("chunks", len(out)))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Close shuts down the worker pool and waits for the workers to exit.
func (p *ParallelChunker) Close() {
	p.closeOnce.Do(func() { close(p.tasks) })
	p.wg.Wait()
}

func (p *ParallelChunker) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task.result <- p.run(task)
	}
}

// run executes one segment task, converting a panic into an error so a broken
// task fails the call instead of crashing the process.
func (p *ParallelChunker) run(task parallelTask) (res segmentResult) {
	res.seg = task.seg
	defer func() {
		if r := recover(); r != nil {
			res.chunks = nil
			res.err = fmt.Errorf("panic: %v", r)
		}
	}()
	res.chunks, res.err = p.chunker.Chunk(task.ctx, task.text, task.metadata)
	return res
}

type textSegment struct {
	text string
	base int
}

// splitSegments cuts text into at most n contiguous segments, never inside a
// word: from each ideal cut point it searches backward to the nearest
// whitespace, falling forward only when a single word spans the whole ideal
// segment.
func splitSegments(text string, n int) []textSegment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if n <= 1 {
		return []textSegment{{text: text, base: 0}}
	}
	ideal := len(text) / n
	if ideal < 1 {
		ideal = 1
	}
	var segs []textSegment
	start := 0
	for i := 0; i < n && start < len(text); i++ {
		if i == n-1 {
			segs = append(segs, textSegment{text: text[start:], base: start})
			break
		}
		cut := start + ideal
		if cut >= len(text) {
			segs = append(segs, textSegment{text: text[start:], base: start})
			break
		}
		j := cut
		for j > start && !isSpaceByte(text[j]) {
			j--
		}
		if j == start {
			j = cut
			for j < len(text) && !isSpaceByte(text[j]) {
				j++
			}
		}
		segs = append(segs, textSegment{text: text[start:j], base: start})
		start = j
	}
	return segs
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
