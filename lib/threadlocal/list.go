package threadlocal

import (
	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/jobs"
)

// ListCache holds one reusable scratch slice per worker
type ListCache[T any] struct {
	slots *Slots[[]T]
}

// NewListCache creates scratch slices with the given initial capacity
func NewListCache[T any](a alloc.Allocator, workers, initialCapacity int) (*ListCache[T], error) {
	slots, err := New[[]T](a, workers)
	if err != nil {
		return nil, err
	}
	slots.Each(func(_ jobs.WorkerID, list *[]T) {
		*list = make([]T, 0, initialCapacity)
	})
	return &ListCache[T]{slots: slots}, nil
}

// Get returns the emptied scratch slice of the worker. Append through the pointer so the
// grown backing array is kept for the next use.
func (c *ListCache[T]) Get(worker jobs.WorkerID) *[]T {
	list := c.slots.Get(worker)
	clear(*list)
	*list = (*list)[:0]
	return list
}

// Peek returns the scratch slice of the worker without resetting it
func (c *ListCache[T]) Peek(worker jobs.WorkerID) []T {
	return *c.slots.Get(worker)
}

// IsCreated reports whether the cache is usable
func (c *ListCache[T]) IsCreated() bool { return c != nil && c.slots.IsCreated() }

// Dispose releases the cache
func (c *ListCache[T]) Dispose() error {
	return c.slots.Dispose()
}
