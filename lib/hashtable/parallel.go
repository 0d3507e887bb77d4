package hashtable

import (
	"sync/atomic"

	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/safety"
)

// AddResult is the outcome of a parallel add
type AddResult int

const (
	Added AddResult = iota
	// Duplicate means the key was already present and nothing was stored
	Duplicate
	// Full means no slot was left, the table must be grown in a single-threaded phase
	Full
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// TryAddParallel claims a slot for the worker and publishes the entry on its bucket. Keys may
// repeat. It returns false without side effects when the table is full.
//
// Thread-safety: safe for concurrent use by distinct workers. No other operation may run at
// the same time.
func (t *Table[K, V]) TryAddParallel(worker jobs.WorkerID, key K, value V) bool {
	safety.AssertIndex(int(worker), t.free.Workers(), component)
	idx := t.free.Claim(int(worker), t.next)
	if idx < 0 {
		return false
	}
	t.keys[idx] = key
	t.values[idx] = value

	bucket := &t.buckets[t.bucketOf(key)]
	for {
		head := atomic.LoadInt32(bucket)
		atomic.StoreInt32(&t.next[idx], head)
		if atomic.CompareAndSwapInt32(bucket, head, idx) {
			return true
		}
	}
}

// TryAddUniqueParallel adds the entry unless the key is already present, also when the other
// entry is being published by another worker at the same time.
//
// Thread-safety: as TryAddParallel.
func (t *Table[K, V]) TryAddUniqueParallel(worker jobs.WorkerID, key K, value V) AddResult {
	safety.AssertIndex(int(worker), t.free.Workers(), component)
	bucket := &t.buckets[t.bucketOf(key)]

	head := atomic.LoadInt32(bucket)
	if t.findAtomic(head, -1, key) >= 0 {
		return Duplicate
	}

	idx := t.free.Claim(int(worker), t.next)
	if idx < 0 {
		return Full
	}
	t.keys[idx] = key
	t.values[idx] = value

	seen := head
	for {
		atomic.StoreInt32(&t.next[idx], head)
		if atomic.CompareAndSwapInt32(bucket, head, idx) {
			return Added
		}
		// only the entries published since the last look can hold the key
		head = atomic.LoadInt32(bucket)
		if t.findAtomic(head, seen, key) >= 0 {
			var (
				zeroK K
				zeroV V
			)
			t.keys[idx] = zeroK
			t.values[idx] = zeroV
			t.free.Return(int(worker), idx)
			return Duplicate
		}
		seen = head
	}
}

// findAtomic walks a chain from idx up to (excluding) stop while other workers publish
func (t *Table[K, V]) findAtomic(idx, stop int32, key K) int32 {
	for idx >= 0 && idx != stop {
		if t.keys[idx] == key {
			return idx
		}
		idx = atomic.LoadInt32(&t.next[idx])
	}
	return -1
}
