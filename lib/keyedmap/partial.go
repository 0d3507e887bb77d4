package keyedmap

import (
	"fmt"
	"iter"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/ValentinKolb/ucoll/lib/util"
	"golang.org/x/exp/constraints"
)

// PartialKeyedMap indexes key and value slices owned by the caller. It only owns the next
// links and the buckets. The slices must not change between Update calls.
//
// Thread-safety: not safe for concurrent use. Lookups may run concurrently with each other.
type PartialKeyedMap[K constraints.Integer, V any] struct {
	keys    []K
	values  []V
	length  int
	next    alloc.Region[int32]
	buckets alloc.Region[int32]

	allocator alloc.Allocator
}

// NewPartial creates an empty map for keys in [0, bucketCapacity)
func NewPartial[K constraints.Integer, V any](bucketCapacity int, a alloc.Allocator) (*PartialKeyedMap[K, V], error) {
	if bucketCapacity < 1 {
		return nil, fmt.Errorf("%w: bucket capacity %d", alloc.ErrInvalidSize, bucketCapacity)
	}
	if a == nil {
		a = alloc.Default()
	}
	buckets, err := alloc.NewRegion[int32](a, bucketCapacity)
	if err != nil {
		return nil, err
	}
	m := &PartialKeyedMap[K, V]{buckets: buckets, allocator: a}
	relink[K](nil, nil, m.buckets.Data, 0)
	return m, nil
}

// IsCreated reports whether the map is usable
func (m *PartialKeyedMap[K, V]) IsCreated() bool { return m != nil && m.buckets.IsCreated() }

// Dispose releases the next links and buckets. The indexed slices stay untouched.
func (m *PartialKeyedMap[K, V]) Dispose() error {
	if !m.IsCreated() {
		return nil
	}
	errNext := m.next.Free(m.allocator)
	errBuckets := m.buckets.Free(m.allocator)
	*m = PartialKeyedMap[K, V]{}
	if errNext != nil {
		return errNext
	}
	return errBuckets
}

// Update indexes the first length entries of keys and values. The next region only grows,
// so rebuilding with a stable length does not allocate.
func (m *PartialKeyedMap[K, V]) Update(keys []K, values []V, length int) error {
	safety.AssertCreated(m.IsCreated(), component)
	safety.Assert(length >= 0 && length <= len(keys) && length <= len(values), component,
		"length %d exceeds keys (%d) or values (%d)", length, len(keys), len(values))

	if length > m.next.Len() {
		grown, err := alloc.NewRegion[int32](m.allocator, util.CeilPowerOfTwo(length))
		if err != nil {
			return err
		}
		if err := m.next.Free(m.allocator); err != nil {
			return err
		}
		m.next = grown
	}

	m.keys = keys
	m.values = values
	m.length = length
	m.RecalculateBuckets()
	return nil
}

// RecalculateBuckets rebuilds every chain from the indexed keys
func (m *PartialKeyedMap[K, V]) RecalculateBuckets() {
	relink(m.keys, m.next.Data, m.buckets.Data, m.length)
}

// Length returns the number of indexed entries
func (m *PartialKeyedMap[K, V]) Length() int { return m.length }

// BucketCapacity returns the number of valid keys
func (m *PartialKeyedMap[K, V]) BucketCapacity() int { return m.buckets.Len() }

// TryGetFirstValue returns the last indexed value of the key and an iterator for the rest
func (m *PartialKeyedMap[K, V]) TryGetFirstValue(key K) (V, Iterator[K], bool) {
	safety.AssertCreated(m.IsCreated(), component)
	it := Iterator[K]{key: key, next: m.buckets.Data[bucketOf(key, m.buckets.Len())]}
	v, ok := m.TryGetNextValue(&it)
	return v, it, ok
}

// TryGetNextValue advances the iterator
func (m *PartialKeyedMap[K, V]) TryGetNextValue(it *Iterator[K]) (V, bool) {
	return step(it, m.next.Data, m.values)
}

// ContainsKey reports whether the key has a value
func (m *PartialKeyedMap[K, V]) ContainsKey(key K) bool {
	safety.AssertCreated(m.IsCreated(), component)
	return m.buckets.Data[bucketOf(key, m.buckets.Len())] >= 0
}

// All iterates over the indexed entries in index order
func (m *PartialKeyedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := 0; i < m.length; i++ {
			if !yield(m.keys[i], m.values[i]) {
				return
			}
		}
	}
}
