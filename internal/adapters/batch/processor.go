package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teamforge/crew/pkg/logger"
	"github.com/teamforge/crew/pkg/metrics"
)

// Processor defaults.
const (
	DefaultChunkSize   = 100
	DefaultConcurrency = 8
)

// ItemFunc processes one item.
type ItemFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ItemError ties a failure to the item's position in the input.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// Outcome summarizes one processing run. Results holds successful results
// in input order; failures appear only in Errors.
type Outcome[R any] struct {
	Processed int
	Failed    int
	Results   []R
	Errors    []ItemError
}

// StreamHandlers are optional callbacks for ProcessStream. Nil handlers
// are skipped.
type StreamHandlers[T, R any] struct {
	OnResult func(item T, result R)
	OnError  func(item T, err error)
	OnChunk  func(processed int)
}

// Processor splits workloads into fixed-size chunks and runs them
// sequentially, in parallel, or from a stream.
type Processor[T, R any] struct {
	chunkSize   int
	concurrency int
	stopOnError bool
	log         logger.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption[T, R any] func(*Processor[T, R])

// ChunkSize sets how many items each chunk carries.
func ChunkSize[T, R any](n int) ProcessorOption[T, R] {
	return func(p *Processor[T, R]) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// Concurrency bounds how many items run at once within a chunk.
func Concurrency[T, R any](n int) ProcessorOption[T, R] {
	return func(p *Processor[T, R]) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// StopOnError makes the processor stop scheduling new chunks after a chunk
// produced a failure. Items already in flight still settle.
func StopOnError[T, R any]() ProcessorOption[T, R] {
	return func(p *Processor[T, R]) { p.stopOnError = true }
}

// ProcessorLogger sets the processor's logger.
func ProcessorLogger[T, R any](log logger.Logger) ProcessorOption[T, R] {
	return func(p *Processor[T, R]) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProcessor creates a chunked processor.
func NewProcessor[T, R any](opts ...ProcessorOption[T, R]) *Processor[T, R] {
	p := &Processor[T, R]{
		chunkSize:   DefaultChunkSize,
		concurrency: DefaultConcurrency,
		log:         logger.Get().Named("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessSequential runs items one at a time, chunk by chunk.
func (p *Processor[T, R]) ProcessSequential(ctx context.Context, items []T, fn ItemFunc[T, R]) (Outcome[R], error) {
	var out Outcome[R]

	for start := 0; start < len(items); start += p.chunkSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := start + p.chunkSize
		if end > len(items) {
			end = len(items)
		}
		metrics.RecordProcessorChunk()

		chunkFailed := false
		for i := start; i < end; i++ {
			res, err := fn(ctx, items[i])
			if err != nil {
				metrics.RecordProcessorItemFailure()
				out.Failed++
				out.Errors = append(out.Errors, ItemError{Index: i, Err: err})
				chunkFailed = true
				continue
			}
			out.Processed++
			out.Results = append(out.Results, res)
		}
		if p.stopOnError && chunkFailed {
			break
		}
	}
	return out, nil
}

// ProcessParallel runs each chunk with bounded concurrency. All items of a
// chunk settle before the next chunk starts; individual failures never
// cancel their siblings.
func (p *Processor[T, R]) ProcessParallel(ctx context.Context, items []T, fn ItemFunc[T, R]) (Outcome[R], error) {
	var out Outcome[R]

	for start := 0; start < len(items); start += p.chunkSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := start + p.chunkSize
		if end > len(items) {
			end = len(items)
		}
		metrics.RecordProcessorChunk()

		results := make([]*R, end-start)
		errs := make([]error, end-start)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.concurrency)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				res, err := fn(gctx, items[i])
				if err != nil {
					errs[i-start] = err
					return nil // settle the whole chunk
				}
				results[i-start] = &res
				return nil
			})
		}
		_ = g.Wait()

		chunkFailed := false
		for off := range results {
			if errs[off] != nil {
				metrics.RecordProcessorItemFailure()
				out.Failed++
				out.Errors = append(out.Errors, ItemError{Index: start + off, Err: errs[off]})
				chunkFailed = true
				continue
			}
			out.Processed++
			out.Results = append(out.Results, *results[off])
		}
		if p.stopOnError && chunkFailed {
			break
		}
	}
	return out, nil
}

// ProcessStream drains source in chunk-sized batches, running each batch
// with bounded concurrency. It returns when source closes or ctx ends.
func (p *Processor[T, R]) ProcessStream(ctx context.Context, source <-chan T, fn ItemFunc[T, R], handlers StreamHandlers[T, R]) (Outcome[R], error) {
	var out Outcome[R]
	index := 0

	chunk := make([]T, 0, p.chunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		metrics.RecordProcessorChunk()

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.concurrency)
		base := index - len(chunk)
		for off, item := range chunk {
			off, item := off, item
			g.Go(func() error {
				res, err := fn(gctx, item)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					metrics.RecordProcessorItemFailure()
					out.Failed++
					out.Errors = append(out.Errors, ItemError{Index: base + off, Err: err})
					if handlers.OnError != nil {
						handlers.OnError(item, err)
					}
					return nil
				}
				out.Processed++
				out.Results = append(out.Results, res)
				if handlers.OnResult != nil {
					handlers.OnResult(item, res)
				}
				return nil
			})
		}
		_ = g.Wait()
		if handlers.OnChunk != nil {
			handlers.OnChunk(out.Processed)
		}
		chunk = chunk[:0]
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case item, open := <-source:
			if !open {
				if err := flush(); err != nil {
					return out, err
				}
				return out, nil
			}
			chunk = append(chunk, item)
			index++
			if len(chunk) >= p.chunkSize {
				if err := flush(); err != nil {
					return out, err
				}
			}
		}
	}
}
