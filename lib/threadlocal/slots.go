package threadlocal

import (
	"fmt"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"golang.org/x/sys/cpu"
)

// padded places a full cache line in front of every value. The region holds one extra
// record so the last value is also followed by a pad.
type padded[T any] struct {
	_     cpu.CacheLinePad
	value T
}

// Slots is a fixed array of per-worker records
type Slots[T any] struct {
	region    alloc.Region[padded[T]]
	allocator alloc.Allocator
	workers   int
}

// New creates slots for workers workers (<= 0 means GOMAXPROCS)
func New[T any](a alloc.Allocator, workers int) (*Slots[T], error) {
	workers = jobs.Workers(workers)
	region, err := alloc.NewRegion[padded[T]](a, workers+1)
	if err != nil {
		return nil, fmt.Errorf("threadlocal: %w", err)
	}
	return &Slots[T]{
		region:    region,
		allocator: a,
		workers:   workers,
	}, nil
}

// Get returns the record of the given worker
//
// Thread-safety: safe as long as every worker only passes its own id.
func (s *Slots[T]) Get(worker jobs.WorkerID) *T {
	safety.AssertCreated(s.region.IsCreated(), "threadlocal")
	safety.AssertIndex(int(worker), s.workers, "threadlocal")
	return &s.region.Data[worker].value
}

// Len returns the number of workers
func (s *Slots[T]) Len() int { return s.workers }

// Each calls fn for every record in worker order.
//
// Thread-safety: only call between parallel phases.
func (s *Slots[T]) Each(fn func(worker jobs.WorkerID, value *T)) {
	safety.AssertCreated(s.region.IsCreated(), "threadlocal")
	for w := 0; w < s.workers; w++ {
		fn(jobs.WorkerID(w), &s.region.Data[w].value)
	}
}

// IsCreated reports whether the slots are usable
func (s *Slots[T]) IsCreated() bool { return s != nil && s.region.IsCreated() }

// Dispose releases the slots
func (s *Slots[T]) Dispose() error {
	return s.region.Free(s.allocator)
}
