// Package freelist hands out slot indices of a bucket table to concurrent writers.
//
// Every worker owns a cache holding the head of a private chain of free indices. The chain is
// threaded through the table's next array. A cache is in one of three states:
//
//	Empty (-1)      the worker has no free index
//	Refilling (-2)  the worker is claiming a fresh block from the global cursor
//	>= 0            the first free index of the worker's chain
//
// Claim tries, in order: the worker's spare index, the worker's own chain, a fresh block of
// BlockSize indices from the never-yet-allocated cursor (one atomic add), and finally stealing
// one index from another worker's chain. Indices are only pushed back onto chains during
// single-threaded phases (Release), so a chain head never returns to an older value while
// claims are running and the compare-and-swap pops are free of ABA.
package freelist

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const (
	Empty     int32 = -1
	Refilling int32 = -2

	// BlockSize is the number of indices a worker claims from the global cursor at once
	BlockSize int32 = 16
)

// cache is the per-worker state, padded so workers never share a cache line
type cache struct {
	_     cpu.CacheLinePad
	first atomic.Int32
	// spare holds one index returned by its owner during a parallel phase.
	// It is never stolen, so returning it needs no synchronization.
	spare int32
}

// List tracks the free indices of a table with capacity slots
type List struct {
	caches    []cache
	allocated atomic.Int32
	capacity  int32
}

// Init sets up caches for workers workers and an empty table of the given capacity
func (l *List) Init(workers, capacity int) {
	if workers < 1 {
		workers = 1
	}
	l.caches = make([]cache, workers)
	l.capacity = int32(capacity)
	l.Reset()
}

// Reset forgets every free index. The next claims start at index 0 again.
//
// Thread-safety: single-threaded phase only.
func (l *List) Reset() {
	for i := range l.caches {
		l.caches[i].first.Store(Empty)
		l.caches[i].spare = Empty
	}
	l.allocated.Store(0)
}

// Workers returns the number of worker caches
func (l *List) Workers() int { return len(l.caches) }

// Capacity returns the number of slots managed by the list
func (l *List) Capacity() int { return int(l.capacity) }

// Allocated returns the number of slots ever handed out from the global cursor.
// The cursor may run past the capacity under contention, the result never does.
func (l *List) Allocated() int {
	return int(min(l.allocated.Load(), l.capacity))
}

// SetCapacity grows the managed slot count. Free chains stay valid because the caller copies
// the next links of the existing slots.
//
// Thread-safety: single-threaded phase only.
func (l *List) SetCapacity(capacity int) {
	l.allocated.Store(min(l.allocated.Load(), l.capacity))
	l.capacity = int32(capacity)
}

// Claim returns a free slot index for the worker, or Empty if the table is full.
//
// Thread-safety: safe for concurrent use as long as every worker passes its own id.
func (l *List) Claim(worker int, next []int32) int32 {
	own := &l.caches[worker]

	if own.spare >= 0 {
		idx := own.spare
		own.spare = Empty
		return idx
	}

	// pop from the own chain, other workers may be stealing from it concurrently
	for {
		idx := own.first.Load()
		if idx < 0 {
			break
		}
		if own.first.CompareAndSwap(idx, atomic.LoadInt32(&next[idx])) {
			return idx
		}
	}

	// refill from the never-yet-allocated cursor
	own.first.Store(Refilling)
	if l.allocated.Load() < l.capacity {
		idx := l.allocated.Add(BlockSize) - BlockSize
		if idx < l.capacity-1 {
			count := min(BlockSize, l.capacity-idx)
			for i := int32(1); i < count-1; i++ {
				atomic.StoreInt32(&next[idx+i], idx+i+1)
			}
			atomic.StoreInt32(&next[idx+count-1], Empty)
			atomic.StoreInt32(&next[idx], Empty)
			own.first.Store(idx + 1)
			return idx
		}
		if idx == l.capacity-1 {
			atomic.StoreInt32(&next[idx], Empty)
			own.first.Store(Empty)
			return idx
		}
	}
	own.first.Store(Empty)

	// steal from the other workers
	workers := len(l.caches)
	for again := true; again; {
		again = false
		for other := (worker + 1) % workers; other != worker; other = (other + 1) % workers {
			oc := &l.caches[other].first
			var idx int32
			for {
				idx = oc.Load()
				if idx < 0 {
					break
				}
				if oc.CompareAndSwap(idx, atomic.LoadInt32(&next[idx])) {
					break
				}
			}
			if idx == Refilling {
				// the other worker is about to publish a fresh block
				again = true
			} else if idx >= 0 {
				atomic.StoreInt32(&next[idx], Empty)
				return idx
			}
		}
	}
	return Empty
}

// Return hands a just claimed index back to its worker without publishing it to the chains.
// The next Claim of the same worker returns it first.
//
// Thread-safety: only the owning worker may call Return, at most once between two claims.
func (l *List) Return(worker int, idx int32) {
	l.caches[worker].spare = idx
}

// ClaimSingle returns a free slot index, or Empty if the table is full.
// Chains are preferred over fresh slots to keep the table dense.
//
// Thread-safety: single-threaded phase only.
func (l *List) ClaimSingle(next []int32) int32 {
	for i := range l.caches {
		c := &l.caches[i]
		if c.spare >= 0 {
			idx := c.spare
			c.spare = Empty
			return idx
		}
		if idx := c.first.Load(); idx >= 0 {
			c.first.Store(next[idx])
			next[idx] = Empty
			return idx
		}
	}
	if idx := l.allocated.Load(); idx < l.capacity {
		l.allocated.Store(idx + 1)
		next[idx] = Empty
		return idx
	}
	return Empty
}

// Release pushes an unused slot onto the chain of the worker.
//
// Thread-safety: single-threaded phase only.
func (l *List) Release(worker int, idx int32, next []int32) {
	c := &l.caches[worker]
	next[idx] = c.first.Load()
	c.first.Store(idx)
}

// FreeCount returns the number of indices waiting in chains and spares.
//
// Thread-safety: single-threaded phase only.
func (l *List) FreeCount(next []int32) int {
	n := 0
	for i := range l.caches {
		c := &l.caches[i]
		if c.spare >= 0 {
			n++
		}
		for idx := c.first.Load(); idx >= 0; idx = next[idx] {
			n++
		}
	}
	return n
}

// Used returns the number of slots currently holding entries.
//
// Thread-safety: single-threaded phase only.
func (l *List) Used(next []int32) int {
	return l.Allocated() - l.FreeCount(next)
}
