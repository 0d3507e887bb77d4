package hashtable

import (
	"fmt"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/hashtable/internal/freelist"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/ValentinKolb/ucoll/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("hashtable")

const component = "hashtable"

// minGrowth is the capacity an empty table grows to on its first insert
const minGrowth = 8

// Config holds the optional settings of a table
type Config[K any] struct {
	// Hasher maps keys to buckets, nil selects DefaultHasher
	Hasher Hasher[K]
	// Workers is the number of writers that may add in parallel, 0 selects GOMAXPROCS.
	// Worker ids passed to the parallel operations must be below this number.
	Workers int
}

// --------------------------------------------------------------------------
// Table
// --------------------------------------------------------------------------

// Table is the bucketed hash table core. Keys may repeat, deduplication is up to the caller.
//
// Thread-safety: Table is not safe for concurrent use except for the parallel add operations,
// see the package documentation.
type Table[K comparable, V any] struct {
	keys    []K
	values  []V
	next    []int32
	buckets []int32
	mask    uint64

	free      freelist.List
	hasher    Hasher[K]
	allocator alloc.Allocator
	block     alloc.Block
}

// allocateBlock reserves one block holding all four regions
func allocateBlock[K comparable, V any](a alloc.Allocator, capacity, bucketCapacity int) (alloc.Block, error) {
	var l alloc.Layout
	alloc.AddRegion[K](&l, capacity)
	alloc.AddRegion[V](&l, capacity)
	alloc.AddRegion[int32](&l, capacity)
	alloc.AddRegion[int32](&l, bucketCapacity)
	return alloc.AllocateLayout(a, &l)
}

// Init creates the table. A bucketCapacity of 0 is derived from capacity, any other value is
// rounded up to a power of two. A nil allocator selects alloc.Default.
func (t *Table[K, V]) Init(capacity, bucketCapacity int, a alloc.Allocator, cfg Config[K]) error {
	if capacity < 0 || bucketCapacity < 0 {
		return fmt.Errorf("%w: capacity %d, bucket capacity %d", alloc.ErrInvalidSize, capacity, bucketCapacity)
	}
	if a == nil {
		a = alloc.Default()
	}
	if bucketCapacity == 0 {
		bucketCapacity = util.BucketCapacityFor(capacity)
	} else {
		bucketCapacity = util.CeilPowerOfTwo(bucketCapacity)
	}
	if cfg.Hasher == nil {
		cfg.Hasher = DefaultHasher[K]()
	}

	block, err := allocateBlock[K, V](a, capacity, bucketCapacity)
	if err != nil {
		return err
	}

	*t = Table[K, V]{
		keys:      make([]K, capacity),
		values:    make([]V, capacity),
		next:      make([]int32, capacity),
		buckets:   make([]int32, bucketCapacity),
		mask:      uint64(bucketCapacity - 1),
		hasher:    cfg.Hasher,
		allocator: a,
		block:     block,
	}
	fillEmpty(t.buckets)
	t.free.Init(jobs.Workers(cfg.Workers), capacity)
	return nil
}

func fillEmpty(s []int32) {
	for i := range s {
		s[i] = freelist.Empty
	}
}

// IsCreated reports whether the table was initialized and not yet disposed
func (t *Table[K, V]) IsCreated() bool { return t != nil && t.block.IsValid() }

// Dispose releases the block of the table. Disposing twice is a no-op.
func (t *Table[K, V]) Dispose() error {
	if !t.IsCreated() {
		return nil
	}
	err := t.allocator.Free(t.block)
	*t = Table[K, V]{}
	return err
}

// Allocator returns the allocator the table draws from
func (t *Table[K, V]) Allocator() alloc.Allocator { return t.allocator }

// Capacity returns the number of slots
func (t *Table[K, V]) Capacity() int { return len(t.keys) }

// BucketCapacity returns the number of buckets
func (t *Table[K, V]) BucketCapacity() int { return len(t.buckets) }

// Workers returns the number of workers that may add in parallel
func (t *Table[K, V]) Workers() int { return t.free.Workers() }

// Count returns the number of entries. It walks the free chains.
func (t *Table[K, V]) Count() int {
	safety.AssertCreated(t.IsCreated(), component)
	return t.free.Used(t.next)
}

// Clear removes all entries and keeps the capacity
func (t *Table[K, V]) Clear() {
	safety.AssertCreated(t.IsCreated(), component)
	fillEmpty(t.buckets)
	clear(t.keys)
	clear(t.values)
	t.free.Reset()
}

func (t *Table[K, V]) bucketOf(key K) int32 {
	return int32(t.hasher(key) & t.mask)
}

// --------------------------------------------------------------------------
// Growth
// --------------------------------------------------------------------------

// Resize grows the table to capacity slots. Existing entries and free slots keep their index.
// The buckets are rehashed when their count changes. Shrinking is a contract violation.
func (t *Table[K, V]) Resize(capacity int) error {
	safety.AssertCreated(t.IsCreated(), component)
	safety.Assert(capacity >= t.Capacity(), component, "resize to %d below capacity %d", capacity, t.Capacity())
	if capacity <= t.Capacity() {
		return nil
	}
	bucketCapacity := max(len(t.buckets), util.BucketCapacityFor(capacity))

	block, err := allocateBlock[K, V](t.allocator, capacity, bucketCapacity)
	if err != nil {
		return err
	}

	keys := make([]K, capacity)
	values := make([]V, capacity)
	next := make([]int32, capacity)
	copy(keys, t.keys)
	copy(values, t.values)
	copy(next, t.next)

	buckets := t.buckets
	if bucketCapacity != len(t.buckets) {
		buckets = make([]int32, bucketCapacity)
		fillEmpty(buckets)
		mask := uint64(bucketCapacity - 1)
		for _, head := range t.buckets {
			for idx := head; idx >= 0; {
				following := next[idx]
				b := t.hasher(keys[idx]) & mask
				next[idx] = buckets[b]
				buckets[b] = idx
				idx = following
			}
		}
		t.mask = mask
	}

	if err := t.allocator.Free(t.block); err != nil {
		plog.Warningf("failed to free block %s after resize: %v", t.block, err)
	}

	plog.Debugf("resized table from %d to %d slots (%d buckets)", t.Capacity(), capacity, bucketCapacity)
	t.keys, t.values, t.next, t.buckets = keys, values, next, buckets
	t.block = block
	t.free.SetCapacity(capacity)
	return nil
}

// grow doubles the capacity
func (t *Table[K, V]) grow() error {
	return t.Resize(max(t.Capacity()*2, minGrowth))
}

// Rebuild moves all entries into a fresh table of the given capacity, which must hold every
// entry. The order of entries within a bucket chain is kept.
func (t *Table[K, V]) Rebuild(capacity int) error {
	safety.AssertCreated(t.IsCreated(), component)
	count := t.Count()
	if capacity < count {
		return fmt.Errorf("%w: rebuild to %d slots with %d entries", alloc.ErrInvalidSize, capacity, count)
	}

	var fresh Table[K, V]
	if err := fresh.Init(capacity, 0, t.allocator, Config[K]{Hasher: t.hasher, Workers: t.Workers()}); err != nil {
		return err
	}

	chain := make([]int32, 0, 16)
	for _, head := range t.buckets {
		chain = chain[:0]
		for idx := head; idx >= 0; idx = t.next[idx] {
			chain = append(chain, idx)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			fresh.AddNoFindNoResize(t.keys[chain[i]], t.values[chain[i]])
		}
	}

	old := *t
	*t = fresh
	return old.Dispose()
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Find returns the index of the newest entry with the key, or -1
func (t *Table[K, V]) Find(key K) int32 {
	safety.AssertCreated(t.IsCreated(), component)
	return t.FindFrom(t.buckets[t.bucketOf(key)], key)
}

// FindFrom walks the chain starting at idx (inclusive) and returns the first entry with the
// key, or -1
func (t *Table[K, V]) FindFrom(idx int32, key K) int32 {
	for idx >= 0 && t.keys[idx] != key {
		idx = t.next[idx]
	}
	return idx
}

// Next returns the entry following idx in its chain, or -1
func (t *Table[K, V]) Next(idx int32) int32 { return t.next[idx] }

// Key returns the key stored at idx
func (t *Table[K, V]) Key(idx int32) K { return t.keys[idx] }

// Value returns the value stored at idx
func (t *Table[K, V]) Value(idx int32) V { return t.values[idx] }

// ValuePtr returns a pointer to the value stored at idx. It is valid until the next growth.
func (t *Table[K, V]) ValuePtr(idx int32) *V { return &t.values[idx] }

// SetValue overwrites the value stored at idx
func (t *Table[K, V]) SetValue(idx int32, value V) { t.values[idx] = value }

// Range calls fn for every entry until fn returns false. Entries of one bucket are visited
// newest first, buckets in index order.
func (t *Table[K, V]) Range(fn func(idx int32) bool) {
	safety.AssertCreated(t.IsCreated(), component)
	for _, head := range t.buckets {
		for idx := head; idx >= 0; idx = t.next[idx] {
			if !fn(idx) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Single-threaded mutation
// --------------------------------------------------------------------------

func (t *Table[K, V]) link(idx int32, key K, value V) {
	t.keys[idx] = key
	t.values[idx] = value
	b := t.bucketOf(key)
	t.next[idx] = t.buckets[b]
	t.buckets[b] = idx
}

// AddNoFind inserts an entry without looking for the key and grows the table when it is full.
func (t *Table[K, V]) AddNoFind(key K, value V) (int32, error) {
	safety.AssertCreated(t.IsCreated(), component)
	idx := t.free.ClaimSingle(t.next)
	if idx == freelist.Empty {
		if err := t.grow(); err != nil {
			return -1, err
		}
		idx = t.free.ClaimSingle(t.next)
	}
	t.link(idx, key, value)
	return idx, nil
}

// AddNoFindNoResize inserts an entry without looking for the key. It returns -1 if the table
// is full.
func (t *Table[K, V]) AddNoFindNoResize(key K, value V) int32 {
	safety.AssertCreated(t.IsCreated(), component)
	idx := t.free.ClaimSingle(t.next)
	if idx == freelist.Empty {
		return -1
	}
	t.link(idx, key, value)
	return idx
}

// RemoveFunc unlinks every entry with the key for which match returns true (every entry if
// match is nil) and returns how many were removed. Freed slots are reused by later adds.
func (t *Table[K, V]) RemoveFunc(key K, match func(value V) bool) int {
	safety.AssertCreated(t.IsCreated(), component)
	b := t.bucketOf(key)
	removed := 0
	prev := int32(-1)
	for idx := t.buckets[b]; idx >= 0; {
		following := t.next[idx]
		if t.keys[idx] == key && (match == nil || match(t.values[idx])) {
			if prev < 0 {
				t.buckets[b] = following
			} else {
				t.next[prev] = following
			}
			t.release(idx)
			removed++
		} else {
			prev = idx
		}
		idx = following
	}
	return removed
}

// RemoveAll unlinks every entry with the key
func (t *Table[K, V]) RemoveAll(key K) int {
	return t.RemoveFunc(key, nil)
}

func (t *Table[K, V]) release(idx int32) {
	var (
		zeroK K
		zeroV V
	)
	t.keys[idx] = zeroK
	t.values[idx] = zeroV
	t.free.Release(int(jobs.MainWorker), idx, t.next)
}
