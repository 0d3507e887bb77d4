package perfecthash

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/hashtable"
	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("perfecthash")

const component = "perfecthash"

// MaxSize bounds the table size the construction tries before giving up
const MaxSize = 1 << 28

var (
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrHashCollision  = errors.New("keys cannot be separated by their hashes")
	ErrNullValue      = errors.New("value equals the null value")
	ErrLengthMismatch = errors.New("keys and values differ in length")
)

// Map is an immutable key value table without collisions.
//
// Thread-safety: lookups are safe for concurrent use. Dispose must not race with lookups.
type Map[K comparable, V comparable] struct {
	keys   []K
	values []V
	mask   uint64
	count  int
	null   V
	hasher hashtable.Hasher[K]

	allocator alloc.Allocator
	block     alloc.Block
}

// New builds a table for keys, where values[i] belongs to keys[i]. A nil allocator selects
// alloc.Default and a nil hasher selects hashtable.DefaultHasher.
func New[K comparable, V comparable](keys []K, values []V, null V, a alloc.Allocator, hasher hashtable.Hasher[K]) (*Map[K, V], error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys, %d values", ErrLengthMismatch, len(keys), len(values))
	}
	for i, v := range values {
		if v == null {
			return nil, fmt.Errorf("%w: value of key %v", ErrNullValue, keys[i])
		}
	}
	if a == nil {
		a = alloc.Default()
	}
	if hasher == nil {
		hasher = hashtable.DefaultHasher[K]()
	}

	hashes := make([]uint64, len(keys))
	for i, k := range keys {
		hashes[i] = hasher(k)
	}
	size, err := findSize(keys, hashes, a)
	if err != nil {
		return nil, err
	}

	var l alloc.Layout
	alloc.AddRegion[K](&l, size)
	alloc.AddRegion[V](&l, size)
	block, err := alloc.AllocateLayout(a, &l)
	if err != nil {
		return nil, err
	}

	m := &Map[K, V]{
		keys:      make([]K, size),
		values:    make([]V, size),
		mask:      uint64(size - 1),
		count:     len(keys),
		null:      null,
		hasher:    hasher,
		allocator: a,
		block:     block,
	}
	for i := range m.values {
		m.values[i] = null
	}
	for i, k := range keys {
		slot := hashes[i] & m.mask
		m.keys[slot] = k
		m.values[slot] = values[i]
	}
	plog.Debugf("built perfect hash table of size %d for %d keys", size, len(keys))
	return m, nil
}

// FromMap builds a table from the entries of a Go map
func FromMap[K comparable, V comparable](entries map[K]V, null V, a alloc.Allocator, hasher hashtable.Hasher[K]) (*Map[K, V], error) {
	keys := make([]K, 0, len(entries))
	values := make([]V, 0, len(entries))
	for k, v := range entries {
		keys = append(keys, k)
		values = append(values, v)
	}
	return New(keys, values, null, a, hasher)
}

// findSize doubles the table size from 1 until no two keys share a slot. The owner of every
// slot is tracked in a scratch region that is released before returning.
func findSize[K comparable](keys []K, hashes []uint64, a alloc.Allocator) (int, error) {
	scratch, err := alloc.NewRegion[int32](a, 0)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := scratch.Free(a); err != nil {
			plog.Warningf("failed to free scratch region: %v", err)
		}
	}()

	for size := 1; size <= MaxSize; size *= 2 {
		if size > scratch.Len() {
			grown, err := alloc.NewRegion[int32](a, size)
			if err != nil {
				return 0, err
			}
			if err := scratch.Free(a); err != nil {
				return 0, err
			}
			scratch = grown
		}
		owners := scratch.Data[:size]
		for i := range owners {
			owners[i] = -1
		}

		mask := uint64(size - 1)
		injective := true
		for i := range keys {
			slot := hashes[i] & mask
			other := owners[slot]
			if other < 0 {
				owners[slot] = int32(i)
				continue
			}
			if keys[other] == keys[i] {
				return 0, fmt.Errorf("%w: %v", ErrDuplicateKey, keys[i])
			}
			if hashes[other] == hashes[i] {
				return 0, fmt.Errorf("%w: %v and %v", ErrHashCollision, keys[other], keys[i])
			}
			injective = false
			break
		}
		if injective {
			return size, nil
		}
	}
	return 0, fmt.Errorf("%w: no injective size up to %d for %d keys", ErrHashCollision, MaxSize, len(keys))
}

// IsCreated reports whether the map is usable
func (m *Map[K, V]) IsCreated() bool { return m != nil && m.block.IsValid() }

// Dispose releases the storage of the map
func (m *Map[K, V]) Dispose() error {
	if !m.IsCreated() {
		return nil
	}
	err := m.allocator.Free(m.block)
	*m = Map[K, V]{}
	return err
}

// TryGetValue returns the value of the key. Keys outside the set report false.
func (m *Map[K, V]) TryGetValue(key K) (V, bool) {
	safety.AssertCreated(m.IsCreated(), component)
	slot := m.hasher(key) & m.mask
	v := m.values[slot]
	if v == m.null || m.keys[slot] != key {
		return m.null, false
	}
	return v, true
}

// Get returns the value of the key. A key outside the set is a contract violation.
func (m *Map[K, V]) Get(key K) V {
	v, ok := m.TryGetValue(key)
	if !ok {
		safety.Fail(component, "key %v not found", key)
	}
	return v
}

// ContainsKey reports whether the key is in the set
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.TryGetValue(key)
	return ok
}

// Len returns the number of keys
func (m *Map[K, V]) Len() int { return m.count }

// Size returns the number of slots, a power of two
func (m *Map[K, V]) Size() int { return len(m.values) }

// Null returns the value of empty slots
func (m *Map[K, V]) Null() V { return m.null }

// Keys copies the keys out in slot order
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.count)
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over the entries in slot order
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, v := range m.values {
			if v == m.null {
				continue
			}
			if !yield(m.keys[i], v) {
				return
			}
		}
	}
}
