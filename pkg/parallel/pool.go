// Package parallel provides the data-parallel execution primitives used by
// the query kernels.
//
// The kernels are written against an index domain: one logical work item per
// box, per ball, or per list element. On the CPU the domain is chunked across
// a bounded set of worker goroutines; work items never communicate except
// through atomics, so the same kernel bodies run correctly at any worker
// count, including 1.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// ============================================================================
// Pool Configuration
// ============================================================================

// PoolConfig configures parallel execution.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: runtime.NumCPU() clamped to the range [2, 8]
	MaxWorkers int

	// MinChunkItems is the smallest index-domain size worth splitting.
	// Domains below this run on the calling goroutine.
	MinChunkItems int
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Cap at 8 to avoid excessive overhead
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{
		MaxWorkers:    workers,
		MinChunkItems: 2048,
	}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// workers clamps the configured worker count against the domain size.
func (c PoolConfig) workers(n int) int {
	w := c.MaxWorkers
	if w <= 0 {
		w = DefaultPoolConfig().MaxWorkers
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// ============================================================================
// Index-Domain Execution
// ============================================================================

// ForEachIndex runs fn for every index in [0, n), chunked across workers.
// fn must be safe to call concurrently for distinct indices and must not
// depend on execution order. Small domains run inline on the caller.
func ForEachIndex(ctx context.Context, config PoolConfig, n int, fn func(i int32)) {
	if n <= 0 {
		return
	}
	if n < config.MinChunkItems || config.workers(n) == 1 {
		for i := 0; i < n; i++ {
			fn(int32(i))
		}
		return
	}

	numWorkers := config.workers(n)
	chunkSize := (n + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
			}
			for i := start; i < end; i++ {
				fn(int32(i))
			}
		}(start, end)
	}
	wg.Wait()
}

// ============================================================================
// Chunk Processor
// ============================================================================

// ChunkProcessor processes large datasets by splitting them into chunks
// and processing each chunk in parallel.
type ChunkProcessor[T any, R any] struct {
	config PoolConfig
}

// NewChunkProcessor creates a new chunk processor.
func NewChunkProcessor[T any, R any](config PoolConfig) *ChunkProcessor[T, R] {
	return &ChunkProcessor[T, R]{config: config}
}

// ProcessChunks splits the input into chunks and processes each chunk in
// parallel. The reducer combines results from all chunks into a single result.
func (p *ChunkProcessor[T, R]) ProcessChunks(
	ctx context.Context,
	items []T,
	processor func(ctx context.Context, chunk []T, workerID int) R,
	reducer func(results []R) R,
) R {
	if len(items) == 0 {
		var zero R
		return zero
	}

	numWorkers := p.config.workers(len(items))
	chunkSize := (len(items) + numWorkers - 1) / numWorkers
	results := make([]R, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(workerID int, chunk []T) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
				results[workerID] = processor(ctx, chunk, workerID)
			}
		}(w, items[start:end])
	}

	wg.Wait()
	return reducer(results)
}

// ============================================================================
// Slice Execution
// ============================================================================

// ForEach runs fn for every item of a slice in parallel and returns the
// first error encountered, if any. Unlike ForEachIndex it does not require
// the work to be error-free, so it suits task-level fan-out rather than
// kernel bodies.
func ForEach[T any](ctx context.Context, config PoolConfig, items []T, fn func(ctx context.Context, item T) error) error {
	if len(items) == 0 {
		return nil
	}

	numWorkers := config.workers(len(items))
	itemCh := make(chan T, numWorkers)

	var mu sync.Mutex
	var firstErr error

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
		case itemCh <- item:
			continue
		}
		break
	}
	close(itemCh)

	wg.Wait()
	return firstErr
}
