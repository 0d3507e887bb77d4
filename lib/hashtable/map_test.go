package hashtable

import (
	"context"
	"sort"
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/stretchr/testify/require"
)

func TestHashMapBasics(t *testing.T) {
	m, err := NewHashMap[string, int](2, nil)
	require.NoError(t, err)
	defer m.Dispose()

	require.True(t, m.IsEmpty())
	require.True(t, m.TryAdd("one", 1))
	require.False(t, m.TryAdd("one", 100))
	m.Add("two", 2)
	m.Set("three", 3)
	m.Set("one", 11)
	require.Equal(t, 3, m.Count())

	v, ok := m.TryGetValue("one")
	require.True(t, ok)
	require.Equal(t, 11, v)
	require.Equal(t, 2, m.Get("two"))
	_, ok = m.TryGetValue("four")
	require.False(t, ok)
	require.True(t, m.ContainsKey("three"))

	require.True(t, m.Remove("two"))
	require.False(t, m.Remove("two"))
	require.Equal(t, 2, m.Count())

	seen := map[string]int{}
	for k, v := range m.All() {
		seen[k] = v
	}
	require.Equal(t, map[string]int{"one": 11, "three": 3}, seen)

	keys := m.GetKeyArray()
	values := m.GetValueArray()
	require.Len(t, keys, 2)
	for i, k := range keys {
		require.Equal(t, seen[k], values[i])
	}
}

func TestHashMapCapacity(t *testing.T) {
	tracker := alloc.NewTrackingAllocator(nil)
	m, err := NewHashMap[int, int](4, tracker)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		m.Add(i, i)
	}
	require.GreaterOrEqual(t, m.Capacity(), 100)
	require.NoError(t, m.SetCapacity(1024))
	require.Equal(t, 1024, m.Capacity())

	for i := 0; i < 50; i++ {
		m.Remove(i)
	}
	require.NoError(t, m.TrimExcess())
	require.Equal(t, 50, m.Capacity())
	for i := 50; i < 100; i++ {
		require.Equal(t, i, m.Get(i))
	}

	m.Clear()
	require.True(t, m.IsEmpty())
	require.Greater(t, m.Stats().BucketCapacity, 0)

	require.NoError(t, m.Dispose())
	require.False(t, m.IsCreated())
	require.NoError(t, tracker.Check())
}

func TestHashMapParallelWriter(t *testing.T) {
	const workers = 4
	m, err := NewHashMapWithConfig[int, int](1000, nil, Config[int]{Workers: workers})
	require.NoError(t, err)
	defer m.Dispose()

	w := m.AsParallelWriter()
	require.Equal(t, workers, w.Workers())

	var duplicates [workers]int
	err = jobs.Schedule(context.Background(), workers, func(_ context.Context, id jobs.WorkerID) error {
		for k := 0; k < 1000; k++ {
			if w.TryAdd(id, k, k) == Duplicate {
				duplicates[id]++
			}
		}
		return nil
	})
	require.NoError(t, err)

	total := 0
	for _, d := range duplicates {
		total += d
	}
	require.Equal(t, 3000, total)
	require.Equal(t, 1000, m.Count())

	keys := m.GetKeyArray()
	sort.Ints(keys)
	for i, k := range keys {
		require.Equal(t, i, k)
	}
}

func TestHashers(t *testing.T) {
	require.NotEqual(t, Mix64(1), Mix64(2))
	require.Equal(t, uint64(7), IdentityHasher[int32]()(7))
	require.Equal(t, Mix64(7), IntegerHasher[uint8]()(7))
	require.Equal(t, StringHasher()("abc"), DefaultHasher[string]()("abc"))
	require.Equal(t, Mix64(9), DefaultHasher[int]()(9))
	require.Equal(t, Mix64(9), DefaultHasher[uint16]()(9))

	type point struct{ X, Y int }
	h := DefaultHasher[point]()
	require.Equal(t, h(point{1, 2}), h(point{1, 2}))
	require.NotEqual(t, h(point{1, 2}), h(point{2, 1}))
}
