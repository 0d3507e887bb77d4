package keyedmap

import (
	"fmt"
	"iter"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/exp/constraints"
)

var plog = logger.GetLogger("keyedmap")

const (
	component = "keyedmap"
	minGrowth = 8
)

// Iterator is the position within the values of one key
type Iterator[K constraints.Integer] struct {
	key   K
	entry int32
	next  int32
}

// Key returns the key the iterator walks
func (it Iterator[K]) Key() K { return it.key }

// Index returns the entry index of the last returned value
func (it Iterator[K]) Index() int { return int(it.entry) }

// relink rebuilds bucket heads and next links for the first n keys. Later entries end up in
// front of their chain.
func relink[K constraints.Integer](keys []K, next, buckets []int32, n int) {
	for i := range buckets {
		buckets[i] = -1
	}
	for i := 0; i < n; i++ {
		b := bucketOf(keys[i], len(buckets))
		next[i] = buckets[b]
		buckets[b] = int32(i)
	}
}

func bucketOf[K constraints.Integer](key K, bucketCapacity int) int {
	b := int(key)
	safety.Assert(b >= 0 && b < bucketCapacity, component, "key %d out of range [0, %d)", key, bucketCapacity)
	return b
}

// --------------------------------------------------------------------------
// KeyedMap
// --------------------------------------------------------------------------

// KeyedMap maps dense integer keys to any number of values. Entries occupy the indices
// [0, Count) in insertion order.
//
// Thread-safety: not safe for concurrent use.
type KeyedMap[K constraints.Integer, V any] struct {
	keys    []K
	values  []V
	next    []int32
	buckets []int32
	count   int

	allocator alloc.Allocator
	block     alloc.Block
}

func allocateBlock[K constraints.Integer, V any](a alloc.Allocator, capacity, bucketCapacity int) (alloc.Block, error) {
	var l alloc.Layout
	alloc.AddRegion[K](&l, capacity)
	alloc.AddRegion[V](&l, capacity)
	alloc.AddRegion[int32](&l, capacity)
	alloc.AddRegion[int32](&l, bucketCapacity)
	return alloc.AllocateLayout(a, &l)
}

// New creates a map for keys in [0, bucketCapacity) with room for capacity entries.
// A nil allocator selects alloc.Default.
func New[K constraints.Integer, V any](capacity, bucketCapacity int, a alloc.Allocator) (*KeyedMap[K, V], error) {
	if capacity < 0 || bucketCapacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d, bucket capacity %d", alloc.ErrInvalidSize, capacity, bucketCapacity)
	}
	if a == nil {
		a = alloc.Default()
	}
	block, err := allocateBlock[K, V](a, capacity, bucketCapacity)
	if err != nil {
		return nil, err
	}
	m := &KeyedMap[K, V]{
		keys:      make([]K, capacity),
		values:    make([]V, capacity),
		next:      make([]int32, capacity),
		buckets:   make([]int32, bucketCapacity),
		allocator: a,
		block:     block,
	}
	relink(m.keys, m.next, m.buckets, 0)
	return m, nil
}

// IsCreated reports whether the map is usable
func (m *KeyedMap[K, V]) IsCreated() bool { return m != nil && m.block.IsValid() }

// Dispose releases the storage of the map
func (m *KeyedMap[K, V]) Dispose() error {
	if !m.IsCreated() {
		return nil
	}
	err := m.allocator.Free(m.block)
	*m = KeyedMap[K, V]{}
	return err
}

// Count returns the number of entries
func (m *KeyedMap[K, V]) Count() int { return m.count }

// Capacity returns the number of entries the map holds before growing
func (m *KeyedMap[K, V]) Capacity() int { return len(m.keys) }

// BucketCapacity returns the number of valid keys
func (m *KeyedMap[K, V]) BucketCapacity() int { return len(m.buckets) }

// SetCapacity grows the entry regions, the buckets keep their size. Shrinking is a contract
// violation.
func (m *KeyedMap[K, V]) SetCapacity(capacity int) error {
	safety.AssertCreated(m.IsCreated(), component)
	safety.Assert(capacity >= m.Capacity(), component, "resize to %d below capacity %d", capacity, m.Capacity())
	if capacity <= m.Capacity() {
		return nil
	}
	block, err := allocateBlock[K, V](m.allocator, capacity, len(m.buckets))
	if err != nil {
		return err
	}
	keys := make([]K, capacity)
	values := make([]V, capacity)
	next := make([]int32, capacity)
	copy(keys, m.keys)
	copy(values, m.values)
	copy(next, m.next)

	if err := m.allocator.Free(m.block); err != nil {
		plog.Warningf("failed to free block %s after resize: %v", m.block, err)
	}
	plog.Debugf("grew keyed map from %d to %d entries", m.Capacity(), capacity)
	m.keys, m.values, m.next = keys, values, next
	m.block = block
	return nil
}

// Clear removes every entry and keeps the capacity
func (m *KeyedMap[K, V]) Clear() {
	safety.AssertCreated(m.IsCreated(), component)
	clear(m.values[:m.count])
	m.count = 0
	relink(m.keys, m.next, m.buckets, 0)
}

// Add appends a value for the key. It grows the entry regions when full and panics if the
// allocator refuses.
func (m *KeyedMap[K, V]) Add(key K, value V) {
	safety.AssertCreated(m.IsCreated(), component)
	b := bucketOf(key, len(m.buckets))
	if m.count == len(m.keys) {
		if err := m.SetCapacity(max(m.count*2, minGrowth)); err != nil {
			safety.Fail(component, "growing keyed map: %v", err)
		}
	}
	idx := m.count
	m.count++
	m.keys[idx] = key
	m.values[idx] = value
	m.next[idx] = m.buckets[b]
	m.buckets[b] = int32(idx)
}

// Remove deletes every value of the key and returns how many were removed. The remaining
// entries are compacted in order, which costs a pass over all entries.
func (m *KeyedMap[K, V]) Remove(key K) int {
	safety.AssertCreated(m.IsCreated(), component)
	if m.buckets[bucketOf(key, len(m.buckets))] < 0 {
		return 0
	}
	kept := 0
	for i := 0; i < m.count; i++ {
		if m.keys[i] == key {
			continue
		}
		m.keys[kept] = m.keys[i]
		m.values[kept] = m.values[i]
		kept++
	}
	removed := m.count - kept
	clear(m.values[kept:m.count])
	m.count = kept
	m.RecalculateBuckets()
	return removed
}

// GetKeys returns the key region, Capacity elements long. Writes to it take effect after
// SetCount and RecalculateBuckets.
func (m *KeyedMap[K, V]) GetKeys() []K { return m.keys }

// GetValues returns the value region, Capacity elements long
func (m *KeyedMap[K, V]) GetValues() []V { return m.values }

// SetCount sets the number of entries after the regions were written out of band
func (m *KeyedMap[K, V]) SetCount(count int) {
	safety.AssertCreated(m.IsCreated(), component)
	safety.Assert(count >= 0 && count <= m.Capacity(), component, "count %d out of range [0, %d]", count, m.Capacity())
	m.count = count
}

// RecalculateBuckets rebuilds every chain from the key region in one pass
func (m *KeyedMap[K, V]) RecalculateBuckets() {
	safety.AssertCreated(m.IsCreated(), component)
	relink(m.keys, m.next, m.buckets, m.count)
}

// TryGetFirstValue returns the newest value of the key and an iterator for the rest
func (m *KeyedMap[K, V]) TryGetFirstValue(key K) (V, Iterator[K], bool) {
	safety.AssertCreated(m.IsCreated(), component)
	it := Iterator[K]{key: key, next: m.buckets[bucketOf(key, len(m.buckets))]}
	v, ok := m.TryGetNextValue(&it)
	return v, it, ok
}

// TryGetNextValue advances the iterator
func (m *KeyedMap[K, V]) TryGetNextValue(it *Iterator[K]) (V, bool) {
	return step(it, m.next, m.values)
}

// ContainsKey reports whether the key has a value
func (m *KeyedMap[K, V]) ContainsKey(key K) bool {
	safety.AssertCreated(m.IsCreated(), component)
	return m.buckets[bucketOf(key, len(m.buckets))] >= 0
}

// All iterates over the entries in index order
func (m *KeyedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := 0; i < m.count; i++ {
			if !yield(m.keys[i], m.values[i]) {
				return
			}
		}
	}
}

// step moves the iterator to its next entry. Every entry of a bucket holds the same key.
func step[K constraints.Integer, V any](it *Iterator[K], next []int32, values []V) (V, bool) {
	if it.next < 0 {
		var zero V
		it.entry = -1
		return zero, false
	}
	it.entry = it.next
	it.next = next[it.entry]
	return values[it.entry], true
}
