package jobs

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkers(t *testing.T) {
	require.Equal(t, runtime.GOMAXPROCS(0), Workers(0))
	require.Equal(t, runtime.GOMAXPROCS(0), Workers(-2))
	require.Equal(t, 3, Workers(3))
}

func TestSchedule(t *testing.T) {
	const workers = 6
	seen := make([]atomic.Int32, workers)

	err := Schedule(context.Background(), workers, func(_ context.Context, w WorkerID) error {
		seen[w].Add(1)
		return nil
	})
	require.NoError(t, err)
	for w := range seen {
		require.EqualValues(t, 1, seen[w].Load(), "worker %d", w)
	}
}

func TestParallelForCoversEveryIndexOnce(t *testing.T) {
	const length = 10_000
	hits := make([]atomic.Int32, length)

	err := ParallelFor(context.Background(), 8, length, 37, func(w WorkerID, start, end int) error {
		if w < 0 || w >= 8 {
			return errors.New("worker out of range")
		}
		for i := start; i < end; i++ {
			hits[i].Add(1)
		}
		return nil
	})
	require.NoError(t, err)
	for i := range hits {
		require.EqualValues(t, 1, hits[i].Load(), "index %d", i)
	}
}

func TestParallelForEdgeCases(t *testing.T) {
	calls := atomic.Int32{}
	err := ParallelFor(context.Background(), 4, 0, 8, func(WorkerID, int, int) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, calls.Load())

	require.Error(t, ParallelFor(context.Background(), 4, -1, 8, func(WorkerID, int, int) error { return nil }))

	// batch size <= 0 falls back to single index batches
	var sum atomic.Int64
	require.NoError(t, ParallelFor(context.Background(), 2, 10, 0, func(_ WorkerID, start, end int) error {
		if end != start+1 {
			return errors.New("batch larger than one index")
		}
		sum.Add(int64(start))
		return nil
	}))
	require.EqualValues(t, 45, sum.Load())
}

func TestParallelForError(t *testing.T) {
	boom := errors.New("boom")
	err := ParallelFor(context.Background(), 4, 1000, 10, func(_ WorkerID, start, _ int) error {
		if start == 500 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestParallelForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ParallelFor(ctx, 4, 1000, 10, func(WorkerID, int, int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
