package workqueue

import (
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sys/cpu"
)

var plog = logger.GetLogger("workqueue")

const component = "workqueue"

var rejectedTotal = metrics.NewCounter("ucoll_workqueue_rejected_total")

// cursor is an atomic position on its own cache line
type cursor struct {
	_ cpu.CacheLinePad
	n atomic.Int64
}

// Queue is a bounded buffer of work items.
//
// Thread-safety: Writer.TryAdd and Reader.TryGetNext are safe for concurrent use. Update,
// SetCapacity and Dispose must run while no writer or reader is active.
type Queue[T any] struct {
	buffer alloc.Region[T]
	write  cursor
	read   cursor
	refs   struct {
		_ cpu.CacheLinePad
		n atomic.Uint64
	}
	_ cpu.CacheLinePad

	allocator alloc.Allocator
}

// New creates a queue with room for capacity items per cycle. A nil allocator selects
// alloc.Default.
func New[T any](capacity int, a alloc.Allocator) (*Queue[T], error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: queue capacity %d", alloc.ErrInvalidSize, capacity)
	}
	if a == nil {
		a = alloc.Default()
	}
	buffer, err := alloc.NewRegion[T](a, capacity)
	if err != nil {
		return nil, err
	}
	return &Queue[T]{buffer: buffer, allocator: a}, nil
}

// IsCreated reports whether the queue is usable
func (q *Queue[T]) IsCreated() bool { return q != nil && q.buffer.IsCreated() }

// Dispose releases the buffer
func (q *Queue[T]) Dispose() error {
	if !q.IsCreated() {
		return nil
	}
	return q.buffer.Free(q.allocator)
}

// Capacity returns the number of slots per cycle
func (q *Queue[T]) Capacity() int { return q.buffer.Len() }

// Length returns the number of filled slots of the current cycle
func (q *Queue[T]) Length() int {
	return int(min(q.write.n.Load(), int64(q.buffer.Len())))
}

// RefCount returns the last reference id handed out
func (q *Queue[T]) RefCount() uint64 { return q.refs.n.Load() }

// Update ends a cycle: both cursors go back to 0 and the filled slots are cleared. Reference
// ids keep counting.
func (q *Queue[T]) Update() {
	safety.AssertCreated(q.IsCreated(), component)
	clear(q.buffer.Data[:q.Length()])
	q.write.n.Store(0)
	q.read.n.Store(0)
}

// SetCapacity replaces the buffer with one of the given capacity. Items of the current cycle
// are dropped, the cursors are reset.
func (q *Queue[T]) SetCapacity(capacity int) error {
	safety.AssertCreated(q.IsCreated(), component)
	if capacity == q.Capacity() {
		q.Update()
		return nil
	}
	buffer, err := alloc.NewRegion[T](q.allocator, capacity)
	if err != nil {
		return err
	}
	if err := q.buffer.Free(q.allocator); err != nil {
		return err
	}
	plog.Debugf("queue capacity changed from %d to %d", q.Capacity(), capacity)
	q.buffer = buffer
	q.write.n.Store(0)
	q.read.n.Store(0)
	return nil
}

func (q *Queue[T]) nextRef() uint64 {
	for {
		if id := q.refs.n.Add(1); id != 0 {
			return id
		}
	}
}

// AsWriter returns a producer handle
func (q *Queue[T]) AsWriter() Writer[T] {
	safety.AssertCreated(q.IsCreated(), component)
	return Writer[T]{q: q}
}

// AsReader returns a consumer handle
func (q *Queue[T]) AsReader() Reader[T] {
	safety.AssertCreated(q.IsCreated(), component)
	return Reader[T]{q: q}
}

// --------------------------------------------------------------------------
// Handles
// --------------------------------------------------------------------------

// Writer claims slots of a queue
type Writer[T any] struct {
	q *Queue[T]
}

// TryAdd claims the next slot and returns it with a non-zero reference id. It returns
// (nil, 0) when the cycle is full, the caller queues the work again in a later cycle.
func (w Writer[T]) TryAdd() (*T, uint64) {
	i := w.q.write.n.Add(1) - 1
	if i >= int64(w.q.buffer.Len()) {
		rejectedTotal.Inc()
		return nil, 0
	}
	return &w.q.buffer.Data[i], w.q.nextRef()
}

// TryAddValue stores value in the next slot and returns its reference id, 0 when full
func (w Writer[T]) TryAddValue(value T) uint64 {
	slot, id := w.TryAdd()
	if slot == nil {
		return 0
	}
	*slot = value
	return id
}

// Reader takes filled slots of a queue
type Reader[T any] struct {
	q *Queue[T]
}

// TryGetNext returns the next filled slot, nil once every filled slot was taken
func (r Reader[T]) TryGetNext() *T {
	i := r.q.read.n.Add(1) - 1
	if i >= int64(r.q.Length()) {
		return nil
	}
	return &r.q.buffer.Data[i]
}

// TryGetNextValue returns a copy of the next filled slot
func (r Reader[T]) TryGetNextValue() (T, bool) {
	slot := r.TryGetNext()
	if slot == nil {
		var zero T
		return zero, false
	}
	return *slot, true
}

// Length returns the number of filled slots of the current cycle
func (r Reader[T]) Length() int { return r.q.Length() }
