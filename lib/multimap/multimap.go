package multimap

import (
	"iter"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/hashtable"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("multimap")

const component = "multimap"

// MultiHashMap maps a key to any number of values.
//
// Thread-safety: not safe for concurrent use, see ParallelWriter and FallbackWriter.
type MultiHashMap[K comparable, V any] struct {
	table hashtable.Table[K, V]
	// version changes on every mutation that invalidates iterators
	version uint64
}

// Iterator is the position of TryGetNextValue within the values of one key
type Iterator[K comparable] struct {
	key     K
	entry   int32
	next    int32
	version uint64
}

// Key returns the key the iterator walks
func (it Iterator[K]) Key() K { return it.key }

// New creates a map with room for capacity entries. A nil allocator selects alloc.Default.
func New[K comparable, V any](capacity int, a alloc.Allocator) (*MultiHashMap[K, V], error) {
	return NewWithConfig[K, V](capacity, a, hashtable.Config[K]{})
}

// NewWithConfig creates a map with a custom hasher or number of parallel writers
func NewWithConfig[K comparable, V any](capacity int, a alloc.Allocator, cfg hashtable.Config[K]) (*MultiHashMap[K, V], error) {
	m := &MultiHashMap[K, V]{}
	if err := m.table.Init(capacity, 0, a, cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// IsCreated reports whether the map is usable
func (m *MultiHashMap[K, V]) IsCreated() bool { return m != nil && m.table.IsCreated() }

// Dispose releases the storage of the map
func (m *MultiHashMap[K, V]) Dispose() error {
	m.version++
	return m.table.Dispose()
}

// Count returns the number of entries, a key with n values counts n times
func (m *MultiHashMap[K, V]) Count() int { return m.table.Count() }

// IsEmpty reports whether the map holds no entry
func (m *MultiHashMap[K, V]) IsEmpty() bool { return m.table.Count() == 0 }

// Capacity returns the number of entries the map holds before growing
func (m *MultiHashMap[K, V]) Capacity() int { return m.table.Capacity() }

// SetCapacity grows the map. Shrinking is a contract violation.
func (m *MultiHashMap[K, V]) SetCapacity(capacity int) error {
	m.version++
	return m.table.Resize(capacity)
}

// TrimExcess rebuilds the map with a capacity equal to its count
func (m *MultiHashMap[K, V]) TrimExcess() error {
	m.version++
	count := m.table.Count()
	plog.Debugf("trimming map from %d to %d slots", m.table.Capacity(), count)
	return m.table.Rebuild(count)
}

// Clear removes every entry and keeps the capacity
func (m *MultiHashMap[K, V]) Clear() {
	m.version++
	m.table.Clear()
}

// Stats describes how the entries spread over the buckets
func (m *MultiHashMap[K, V]) Stats() hashtable.Stats { return m.table.Stats() }

// --------------------------------------------------------------------------
// Mutation
// --------------------------------------------------------------------------

// Add inserts a value for the key, next to the values already present. The map grows when it
// is full and panics if the allocator refuses the growth.
func (m *MultiHashMap[K, V]) Add(key K, value V) {
	m.version++
	if _, err := m.table.AddNoFind(key, value); err != nil {
		safety.Fail(component, "growing map: %v", err)
	}
}

// Remove deletes every value of the key and returns how many were removed
func (m *MultiHashMap[K, V]) Remove(key K) int {
	m.version++
	return m.table.RemoveAll(key)
}

// RemoveValue deletes one value of the key equal to value and reports whether one was found.
// A nil equal compares with ==, which panics for values that are not comparable.
func (m *MultiHashMap[K, V]) RemoveValue(key K, value V, equal func(a, b V) bool) bool {
	if equal == nil {
		equal = func(a, b V) bool { return any(a) == any(b) }
	}
	m.version++
	found := false
	m.table.RemoveFunc(key, func(v V) bool {
		if found || !equal(v, value) {
			return false
		}
		found = true
		return true
	})
	return found
}

// SetValue overwrites the value the iterator points at. The iterator stays valid.
func (m *MultiHashMap[K, V]) SetValue(value V, it Iterator[K]) {
	m.checkIterator(it)
	safety.AssertIndex(it.entry, int32(m.table.Capacity()), component)
	m.table.SetValue(it.entry, value)
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// TryGetFirstValue returns the first value of the key and an iterator for the rest
func (m *MultiHashMap[K, V]) TryGetFirstValue(key K) (V, Iterator[K], bool) {
	it := Iterator[K]{key: key, entry: -1, next: -1, version: m.version}
	idx := m.table.Find(key)
	if idx < 0 {
		var zero V
		return zero, it, false
	}
	it.entry = idx
	it.next = m.table.Next(idx)
	return m.table.Value(idx), it, true
}

// TryGetNextValue advances the iterator to the next value of its key
func (m *MultiHashMap[K, V]) TryGetNextValue(it *Iterator[K]) (V, bool) {
	m.checkIterator(*it)
	idx := m.table.FindFrom(it.next, it.key)
	if idx < 0 {
		var zero V
		it.entry = -1
		it.next = -1
		return zero, false
	}
	it.entry = idx
	it.next = m.table.Next(idx)
	return m.table.Value(idx), true
}

func (m *MultiHashMap[K, V]) checkIterator(it Iterator[K]) {
	safety.AssertCreated(m.IsCreated(), component)
	safety.Assert(it.version == m.version, component, "iterator used after the map was modified")
}

// ContainsKey reports whether the key has at least one value
func (m *MultiHashMap[K, V]) ContainsKey(key K) bool { return m.table.Find(key) >= 0 }

// CountValuesForKey returns the number of values of the key
func (m *MultiHashMap[K, V]) CountValuesForKey(key K) int {
	n := 0
	for idx := m.table.Find(key); idx >= 0; idx = m.table.FindFrom(m.table.Next(idx), key) {
		n++
	}
	return n
}

// Values iterates over the values of one key
func (m *MultiHashMap[K, V]) Values(key K) iter.Seq[V] {
	return func(yield func(V) bool) {
		for idx := m.table.Find(key); idx >= 0; idx = m.table.FindFrom(m.table.Next(idx), key) {
			if !yield(m.table.Value(idx)) {
				return
			}
		}
	}
}

// All iterates over every entry in unspecified order
func (m *MultiHashMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.table.Range(func(idx int32) bool {
			return yield(m.table.Key(idx), m.table.Value(idx))
		})
	}
}

// GetKeyArray copies the keys out, a key with n values appears n times
func (m *MultiHashMap[K, V]) GetKeyArray() []K {
	keys, _ := m.copyOut(true, false)
	return keys
}

// GetValueArray copies the values out
func (m *MultiHashMap[K, V]) GetValueArray() []V {
	_, values := m.copyOut(false, true)
	return values
}

// GetKeyValueArrays copies keys and values out, the value at i belongs to the key at i
func (m *MultiHashMap[K, V]) GetKeyValueArrays() ([]K, []V) {
	return m.copyOut(true, true)
}

// GetUniqueKeyArray copies every distinct key out once
func (m *MultiHashMap[K, V]) GetUniqueKeyArray() []K {
	seen := make(map[K]struct{})
	keys := make([]K, 0)
	m.table.Range(func(idx int32) bool {
		k := m.table.Key(idx)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

func (m *MultiHashMap[K, V]) copyOut(withKeys, withValues bool) ([]K, []V) {
	count := m.table.Count()
	var (
		keys   []K
		values []V
	)
	if withKeys {
		keys = make([]K, 0, count)
	}
	if withValues {
		values = make([]V, 0, count)
	}
	m.table.Range(func(idx int32) bool {
		if withKeys {
			keys = append(keys, m.table.Key(idx))
		}
		if withValues {
			values = append(values, m.table.Value(idx))
		}
		return true
	})
	return keys, values
}
