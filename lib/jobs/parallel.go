package jobs

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WorkerID identifies one worker of a parallel phase, in [0, workers)
type WorkerID int

// MainWorker is the id used by code running on the orchestrating goroutine
const MainWorker WorkerID = 0

// Workers normalizes a worker count: n <= 0 means GOMAXPROCS
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Schedule runs fn once per worker and waits for all of them.
// The first error cancels the context passed to the other workers and is returned.
func Schedule(ctx context.Context, workers int, fn func(ctx context.Context, worker WorkerID) error) error {
	workers = Workers(workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		worker := WorkerID(w)
		g.Go(func() error {
			return fn(gctx, worker)
		})
	}
	return g.Wait()
}

// ParallelFor splits [0, length) into batches of batchSize indices and hands them to workers.
// Batches are claimed dynamically, so a slow worker does not hold back the others.
// Cancellation is checked between batches only; a batch that started always runs to completion.
func ParallelFor(ctx context.Context, workers, length, batchSize int, fn func(worker WorkerID, start, end int) error) error {
	if length < 0 {
		return fmt.Errorf("jobs: negative length %d", length)
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	var next atomic.Int64
	return Schedule(ctx, workers, func(ctx context.Context, worker WorkerID) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := int(next.Add(int64(batchSize))) - batchSize
			if start >= length {
				return nil
			}
			end := min(start+batchSize, length)
			if err := fn(worker, start, end); err != nil {
				return err
			}
		}
	})
}
