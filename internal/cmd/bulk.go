package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultConcurrency is the default number of concurrent workers
const DefaultConcurrency = 5

// bulkResult represents the outcome of a single bulk operation
type bulkResult struct {
	ID         string `json:"id"`
	Source     string `json:"source,omitempty"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// bulkOptions controls runBulk.
type bulkOptions struct {
	Concurrency int64
	// Limiter, when set, paces the start of each operation.
	Limiter  *rate.Limiter
	Progress bool
	ErrOut   io.Writer
}

// runBulk executes op for every item with bounded parallelism. Results keep
// the order of items. Individual failures never stop the other operations;
// a cancelled context stops the ones not yet started.
func runBulk[T any](
	ctx context.Context,
	items []T,
	opts bulkOptions,
	op func(ctx context.Context, item T) bulkResult,
) []bulkResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	errOut := opts.ErrOut
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	results := make([]bulkResult, len(items))
	started := make([]bool, len(items))
	var mu sync.Mutex
	var done int64
	total := len(items)

	g, ctx := errgroup.WithContext(ctx)

	for i, item := range items {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			if ctx.Err() != nil {
				return nil
			}

			res := op(ctx, item)
			mu.Lock()
			results[i] = res
			started[i] = true
			mu.Unlock()

			if opts.Progress && total > 0 {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d", current, total)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()

	if opts.Progress && total > 0 {
		_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d\n", atomic.LoadInt64(&done), total)
	}

	out := results[:0]
	for i, ok := range started {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

// countResults returns success and failure counts from bulk results
func countResults(results []bulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}
