package hashtable

import (
	"iter"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/safety"
)

// HashMap maps every key to exactly one value.
//
// Thread-safety: HashMap is not safe for concurrent use. Use AsParallelWriter for parallel
// inserts.
type HashMap[K comparable, V any] struct {
	table Table[K, V]
}

// NewHashMap creates a map with room for capacity entries
func NewHashMap[K comparable, V any](capacity int, a alloc.Allocator) (*HashMap[K, V], error) {
	return NewHashMapWithConfig[K, V](capacity, a, Config[K]{})
}

// NewHashMapWithConfig creates a map with a custom hasher or worker count
func NewHashMapWithConfig[K comparable, V any](capacity int, a alloc.Allocator, cfg Config[K]) (*HashMap[K, V], error) {
	m := &HashMap[K, V]{}
	if err := m.table.Init(capacity, 0, a, cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// IsCreated reports whether the map is usable
func (m *HashMap[K, V]) IsCreated() bool { return m != nil && m.table.IsCreated() }

// Dispose releases the storage of the map
func (m *HashMap[K, V]) Dispose() error { return m.table.Dispose() }

// Count returns the number of entries
func (m *HashMap[K, V]) Count() int { return m.table.Count() }

// IsEmpty reports whether the map holds no entry
func (m *HashMap[K, V]) IsEmpty() bool { return m.table.Count() == 0 }

// Capacity returns the number of entries the map holds before growing
func (m *HashMap[K, V]) Capacity() int { return m.table.Capacity() }

// SetCapacity grows the map. Shrinking is a contract violation.
func (m *HashMap[K, V]) SetCapacity(capacity int) error { return m.table.Resize(capacity) }

// TrimExcess shrinks the capacity to the number of entries
func (m *HashMap[K, V]) TrimExcess() error { return m.table.Rebuild(m.table.Count()) }

// Clear removes every entry
func (m *HashMap[K, V]) Clear() { m.table.Clear() }

// TryAdd inserts the entry unless the key is present and reports whether it did. It panics if
// the table cannot grow.
func (m *HashMap[K, V]) TryAdd(key K, value V) bool {
	if m.table.Find(key) >= 0 {
		return false
	}
	if _, err := m.table.AddNoFind(key, value); err != nil {
		safety.Fail(component, "growing map: %v", err)
	}
	return true
}

// Add inserts the entry. Adding a present key is a contract violation.
func (m *HashMap[K, V]) Add(key K, value V) {
	if !m.TryAdd(key, value) {
		safety.Fail(component, "key %v is already present", key)
	}
}

// Set inserts the entry or overwrites the value of a present key
func (m *HashMap[K, V]) Set(key K, value V) {
	if idx := m.table.Find(key); idx >= 0 {
		m.table.SetValue(idx, value)
		return
	}
	if _, err := m.table.AddNoFind(key, value); err != nil {
		safety.Fail(component, "growing map: %v", err)
	}
}

// TryGetValue returns the value of the key
func (m *HashMap[K, V]) TryGetValue(key K) (V, bool) {
	idx := m.table.Find(key)
	if idx < 0 {
		var zero V
		return zero, false
	}
	return m.table.Value(idx), true
}

// Get returns the value of the key. A missing key is a contract violation.
func (m *HashMap[K, V]) Get(key K) V {
	idx := m.table.Find(key)
	if idx < 0 {
		safety.Fail(component, "key %v not found", key)
	}
	return m.table.Value(idx)
}

// ContainsKey reports whether the key is present
func (m *HashMap[K, V]) ContainsKey(key K) bool { return m.table.Find(key) >= 0 }

// Remove deletes the key and reports whether it was present
func (m *HashMap[K, V]) Remove(key K) bool { return m.table.RemoveAll(key) > 0 }

// All iterates over the entries in unspecified order
func (m *HashMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.table.Range(func(idx int32) bool {
			return yield(m.table.Key(idx), m.table.Value(idx))
		})
	}
}

// GetKeyArray copies the keys out
func (m *HashMap[K, V]) GetKeyArray() []K {
	keys := make([]K, 0, m.Count())
	m.table.Range(func(idx int32) bool {
		keys = append(keys, m.table.Key(idx))
		return true
	})
	return keys
}

// GetValueArray copies the values out, in the order of GetKeyArray
func (m *HashMap[K, V]) GetValueArray() []V {
	values := make([]V, 0, m.Count())
	m.table.Range(func(idx int32) bool {
		values = append(values, m.table.Value(idx))
		return true
	})
	return values
}

// Stats describes how the entries spread over the buckets
func (m *HashMap[K, V]) Stats() Stats { return m.table.Stats() }

// AsParallelWriter returns a handle for inserting from several workers at once
func (m *HashMap[K, V]) AsParallelWriter() HashMapWriter[K, V] {
	safety.AssertCreated(m.IsCreated(), component)
	return HashMapWriter[K, V]{table: &m.table}
}

// HashMapWriter inserts unique keys from several workers. The map must not be used otherwise
// while writers are active.
type HashMapWriter[K comparable, V any] struct {
	table *Table[K, V]
}

// TryAdd inserts the entry unless the key is present or the map is full
func (w HashMapWriter[K, V]) TryAdd(worker jobs.WorkerID, key K, value V) AddResult {
	return w.table.TryAddUniqueParallel(worker, key, value)
}

// Workers returns the number of worker ids accepted by TryAdd
func (w HashMapWriter[K, V]) Workers() int { return w.table.Workers() }
