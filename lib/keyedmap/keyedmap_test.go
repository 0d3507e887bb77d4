package keyedmap

import (
	"slices"
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/stretchr/testify/require"
)

func collect[K interface{ ~int | ~uint16 }, V any](first func(K) (V, Iterator[K], bool), next func(*Iterator[K]) (V, bool), key K) []V {
	var values []V
	for v, it, ok := first(key); ok; v, ok = next(&it) {
		values = append(values, v)
	}
	return values
}

func TestKeyedMapAddAndLookup(t *testing.T) {
	m, err := New[int, string](2, 10, nil)
	require.NoError(t, err)
	defer m.Dispose()

	require.Equal(t, 10, m.BucketCapacity())
	m.Add(3, "a")
	m.Add(3, "b")
	m.Add(0, "c")
	m.Add(9, "d")

	require.Equal(t, 4, m.Count())
	require.GreaterOrEqual(t, m.Capacity(), 4)
	require.Equal(t, 10, m.BucketCapacity(), "buckets never grow")

	require.Equal(t, []string{"b", "a"}, collect(m.TryGetFirstValue, m.TryGetNextValue, 3), "newest first")
	require.Equal(t, []string{"c"}, collect(m.TryGetFirstValue, m.TryGetNextValue, 0))
	require.Empty(t, collect(m.TryGetFirstValue, m.TryGetNextValue, 5))
	require.True(t, m.ContainsKey(9))
	require.False(t, m.ContainsKey(1))

	_, it, ok := m.TryGetFirstValue(0)
	require.True(t, ok)
	require.Equal(t, 0, it.Key())
	require.Equal(t, 2, it.Index())

	var keys []int
	for k := range m.All() {
		keys = append(keys, k)
	}
	require.Equal(t, []int{3, 3, 0, 9}, keys)
}

func TestKeyedMapRemoveAndClear(t *testing.T) {
	m, err := New[uint16, int](8, 4, nil)
	require.NoError(t, err)
	defer m.Dispose()

	for i := 0; i < 8; i++ {
		m.Add(uint16(i%4), i)
	}
	require.Equal(t, 2, m.Remove(1))
	require.Equal(t, 0, m.Remove(1))
	require.Equal(t, 6, m.Count())
	require.Equal(t, []int{6, 2}, collect(m.TryGetFirstValue, m.TryGetNextValue, uint16(2)))
	require.False(t, m.ContainsKey(1))

	m.Clear()
	require.Equal(t, 0, m.Count())
	require.False(t, m.ContainsKey(2))
	require.Equal(t, 8, m.Capacity())
}

func TestKeyedMapOutOfBandWrite(t *testing.T) {
	m, err := New[int, int](16, 4, nil)
	require.NoError(t, err)
	defer m.Dispose()

	keys, values := m.GetKeys(), m.GetValues()
	require.Len(t, keys, 16)
	for i := 0; i < 12; i++ {
		keys[i] = 3 - i%4
		values[i] = i
	}
	m.SetCount(12)
	m.RecalculateBuckets()

	require.Equal(t, []int{8, 4, 0}, collect(m.TryGetFirstValue, m.TryGetNextValue, 3))
	first := collect(m.TryGetFirstValue, m.TryGetNextValue, 1)

	m.RecalculateBuckets()
	require.Equal(t, first, collect(m.TryGetFirstValue, m.TryGetNextValue, 1), "rebuild is idempotent")
}

func TestKeyedMapGrowthKeepsBuckets(t *testing.T) {
	tracker := alloc.NewTrackingAllocator(nil)
	m, err := New[int, int](0, 5, tracker)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		m.Add(i%5, i)
	}
	require.Equal(t, 5, m.BucketCapacity())
	for k := 0; k < 5; k++ {
		values := collect(m.TryGetFirstValue, m.TryGetNextValue, k)
		require.Len(t, values, 20)
		for _, v := range values {
			require.Equal(t, k, v%5)
		}
	}
	require.NoError(t, m.SetCapacity(m.Capacity()))

	require.NoError(t, m.Dispose())
	require.NoError(t, m.Dispose())
	require.NoError(t, tracker.Check())
	require.Equal(t, tracker.Allocations(), tracker.Frees())
}

func TestKeyedMapInvalidSizes(t *testing.T) {
	_, err := New[int, int](-1, 4, nil)
	require.ErrorIs(t, err, alloc.ErrInvalidSize)
	_, err = New[int, int](4, 0, nil)
	require.ErrorIs(t, err, alloc.ErrInvalidSize)
	_, err = NewPartial[int, int](0, nil)
	require.ErrorIs(t, err, alloc.ErrInvalidSize)
}

func TestPartialKeyedMapUpdate(t *testing.T) {
	tracker := alloc.NewTrackingAllocator(nil)
	m, err := NewPartial[int, string](4, tracker)
	require.NoError(t, err)

	keys := []int{0, 1, 1, 3, 2}
	values := []string{"a", "b", "c", "d", "e"}
	require.NoError(t, m.Update(keys, values, 4))
	require.Equal(t, 4, m.Length())
	require.Equal(t, 4, m.BucketCapacity())

	require.Equal(t, []string{"c", "b"}, collect(m.TryGetFirstValue, m.TryGetNextValue, 1))
	require.False(t, m.ContainsKey(2), "entries past length are not indexed")

	var before []string
	for _, v := range m.All() {
		before = append(before, v)
	}

	// rebuilding from the same arrays yields the same result without allocating
	allocations := tracker.Allocations()
	require.NoError(t, m.Update(keys, values, 4))
	require.Equal(t, allocations, tracker.Allocations())
	var after []string
	for _, v := range m.All() {
		after = append(after, v)
	}
	require.Equal(t, before, after)
	require.Equal(t, []string{"c", "b"}, collect(m.TryGetFirstValue, m.TryGetNextValue, 1))

	// double buffering: a second pair of arrays replaces the first
	keys2 := slices.Repeat([]int{2}, 40)
	values2 := slices.Repeat([]string{"x"}, 40)
	require.NoError(t, m.Update(keys2, values2, 40))
	require.Len(t, collect(m.TryGetFirstValue, m.TryGetNextValue, 2), 40)
	require.False(t, m.ContainsKey(1))

	require.NoError(t, m.Dispose())
	require.NoError(t, tracker.Check())
	require.Equal(t, []int{0, 1, 1, 3, 2}, keys, "caller arrays are untouched")
}
