// Package parallel provides the worker pool used by table operators.
//
// Operators split their input into fixed-size row chunks, process the chunks
// on the pool and then merge the per-chunk results in chunk order. Because
// chunk boundaries depend only on the chunk size, never on the worker count,
// results are identical whether one or many workers run.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// DefaultChunkSize is the number of rows per chunk when none is configured.
const DefaultChunkSize = 1000

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. numWorkers <= 0 means runtime.NumCPU().
func NewWorkerPool(numWorkers int) *WorkerPool {
	return NewWorkerPoolContext(context.Background(), numWorkers)
}

// NewWorkerPoolContext creates a worker pool that stops handing out work
// once ctx is done.
func NewWorkerPoolContext(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs.
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Chunk is a half-open row range [Start, End).
type Chunk struct {
	Index int
	Start int
	End   int
}

// Chunks splits n rows into consecutive chunks of at most size rows.
func Chunks(n, size int) []Chunk {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	chunks := make([]Chunk, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Start: start, End: end})
	}
	return chunks
}

// ProcessIndexed executes work items in parallel while preserving order.
// It returns ctx.Err() if the pool was cancelled before every item ran.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	// Channel for input items with index
	itemCh := make(chan indexedItem[T], len(items))

	// Channel for results with index
	resultCh := make(chan indexedResult[R], len(items))

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	// Start workers
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					result := worker(item.index, item.value)
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: result,
					}
				}
			}
		}()
	}

	// Send items to workers
	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results and maintain order
	results := make([]R, len(items))
	received := 0
	for result := range resultCh {
		results[result.index] = result.result
		received++
	}

	if received != len(items) {
		return nil, wp.ctx.Err()
	}
	return results, nil
}

// ProcessChunks runs fn over every chunk of n rows. With a nil pool the
// chunks run sequentially on the calling goroutine.
func ProcessChunks[R any](wp *WorkerPool, n, chunkSize int, fn func(Chunk) R) ([]R, error) {
	chunks := Chunks(n, chunkSize)
	if wp == nil || len(chunks) <= 1 {
		results := make([]R, len(chunks))
		for i, c := range chunks {
			results[i] = fn(c)
		}
		return results, nil
	}

	return ProcessIndexed(wp, chunks, func(_ int, c Chunk) R {
		return fn(c)
	})
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
