package multimap

import (
	"errors"

	"github.com/ValentinKolb/ucoll/lib/hashtable"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/ValentinKolb/ucoll/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrFinalized is returned by a second Finalize of a FallbackWriter
var ErrFinalized = errors.New("fallback writer already finalized")

var (
	claimedTotal    = metrics.NewCounter("ucoll_multimap_parallel_claimed_total")
	overflowedTotal = metrics.NewCounter("ucoll_multimap_overflow_pushed_total")
	drainedTotal    = metrics.NewCounter("ucoll_multimap_overflow_drained_total")
)

// --------------------------------------------------------------------------
// ParallelWriter
// --------------------------------------------------------------------------

// ParallelWriter inserts into a map from several workers. The map cannot grow while writers
// are active, so its capacity must be reserved before the parallel phase.
//
// Thread-safety: TryAdd is safe for concurrent use as long as every worker passes its own
// id. No other method of the map may be called until all workers finished.
type ParallelWriter[K comparable, V any] struct {
	table *hashtable.Table[K, V]
}

// AsParallelWriter returns a writer for the map
func (m *MultiHashMap[K, V]) AsParallelWriter() ParallelWriter[K, V] {
	safety.AssertCreated(m.IsCreated(), component)
	m.version++
	return ParallelWriter[K, V]{table: &m.table}
}

// TryAdd inserts the entry and reports whether a slot was left. A false return is the
// expected signal of a full map, not an error.
func (w ParallelWriter[K, V]) TryAdd(worker jobs.WorkerID, key K, value V) bool {
	return w.table.TryAddParallel(worker, key, value)
}

// Workers returns the number of worker ids accepted by TryAdd
func (w ParallelWriter[K, V]) Workers() int { return w.table.Workers() }

// --------------------------------------------------------------------------
// FallbackWriter
// --------------------------------------------------------------------------

type entry[K comparable, V any] struct {
	key   K
	value V
}

// FallbackWriter inserts like ParallelWriter and queues the entries that found no slot.
// Finalize moves the queued entries into the map once the workers finished.
//
// Thread-safety: Add is safe for concurrent use by distinct workers. Finalize must run
// single-threaded after every Add returned.
type FallbackWriter[K comparable, V any] struct {
	m          *MultiHashMap[K, V]
	writer     ParallelWriter[K, V]
	overflow   *util.LockFreeQueue[entry[K, V]]
	claimed    *xsync.Counter
	overflowed *xsync.Counter
}

// NewFallbackWriter creates a writer with an empty overflow queue for the map
func NewFallbackWriter[K comparable, V any](m *MultiHashMap[K, V]) *FallbackWriter[K, V] {
	return &FallbackWriter[K, V]{
		m:          m,
		writer:     m.AsParallelWriter(),
		overflow:   util.NewLockFreeQueue[entry[K, V]](),
		claimed:    xsync.NewCounter(),
		overflowed: xsync.NewCounter(),
	}
}

// Add inserts the entry into the map or, if the map is full, into the overflow queue.
// It reports whether the entry went into the map directly.
func (w *FallbackWriter[K, V]) Add(worker jobs.WorkerID, key K, value V) bool {
	if w.writer.TryAdd(worker, key, value) {
		w.claimed.Inc()
		return true
	}
	if !w.overflow.Push(entry[K, V]{key: key, value: value}) {
		safety.Fail(component, "add after the fallback writer was finalized")
	}
	w.overflowed.Inc()
	return false
}

// Claimed returns the number of entries inserted directly
func (w *FallbackWriter[K, V]) Claimed() int64 { return w.claimed.Value() }

// Overflowed returns the number of entries that went to the overflow queue
func (w *FallbackWriter[K, V]) Overflowed() int64 { return w.overflowed.Value() }

// Pending returns the number of entries waiting in the overflow queue
func (w *FallbackWriter[K, V]) Pending() int { return w.overflow.Len() }

// Finalize drains the overflow queue into the map with ordinary adds, growing it as needed,
// and closes the queue. It returns the number of drained entries.
func (w *FallbackWriter[K, V]) Finalize() (int, error) {
	if w.overflow.IsClosed() {
		return 0, ErrFinalized
	}
	w.overflow.Close()

	drained := w.overflow.Drain(func(e entry[K, V]) {
		w.m.Add(e.key, e.value)
	})

	claimedTotal.Add(int(w.claimed.Value()))
	overflowedTotal.Add(int(w.overflowed.Value()))
	drainedTotal.Add(drained)
	if drained > 0 {
		plog.Infof("drained %d overflowed entries, map grew to %d slots", drained, w.m.Capacity())
	}
	return drained, nil
}
