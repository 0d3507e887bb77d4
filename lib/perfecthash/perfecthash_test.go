package perfecthash

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/hashtable"
	"github.com/stretchr/testify/require"
)

func TestDenseKeysWithIdentityHasher(t *testing.T) {
	keys := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	values := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}

	m, err := New(keys, values, "", nil, hashtable.IdentityHasher[int]())
	require.NoError(t, err)
	defer m.Dispose()

	require.Equal(t, 16, m.Size(), "smallest power of two covering the keys")
	require.Equal(t, 9, m.Len())
	require.Equal(t, "", m.Null())
	for i, k := range keys {
		v, ok := m.TryGetValue(k)
		require.True(t, ok)
		require.Equal(t, values[i], v)
		require.Equal(t, values[i], m.Get(k))
	}
	for _, k := range []int{9, 15, 16, 25, -1} {
		v, ok := m.TryGetValue(k)
		require.False(t, ok, "key %d", k)
		require.Equal(t, "", v)
		require.False(t, m.ContainsKey(k))
	}
	require.ElementsMatch(t, keys, m.Keys())
}

func TestSparseKeysWithDefaultHasher(t *testing.T) {
	entries := make(map[string]int)
	for i := 0; i < 64; i++ {
		entries[fmt.Sprintf("type-%d", i)] = i + 1
	}

	tracker := alloc.NewTrackingAllocator(nil)
	m, err := FromMap(entries, 0, tracker, nil)
	require.NoError(t, err)

	require.True(t, m.Size() >= 64)
	require.Zero(t, m.Size()&(m.Size()-1))
	for k, v := range entries {
		require.Equal(t, v, m.Get(k))
	}
	_, ok := m.TryGetValue("type-64")
	require.False(t, ok)

	n := 0
	for k, v := range m.All() {
		require.Equal(t, entries[k], v)
		n++
	}
	require.Equal(t, 64, n)

	require.Equal(t, 1, tracker.Outstanding(), "the construction scratch is released")
	require.NoError(t, m.Dispose())
	require.NoError(t, m.Dispose())
	require.NoError(t, tracker.Check())
}

func TestSizeIsMinimal(t *testing.T) {
	// keys 0 and 4 share a slot up to size 4
	m, err := New([]int{0, 4}, []int{1, 2}, 0, nil, hashtable.IdentityHasher[int]())
	require.NoError(t, err)
	defer m.Dispose()
	require.Equal(t, 8, m.Size())

	single, err := New([]int{42}, []int{1}, 0, nil, nil)
	require.NoError(t, err)
	defer single.Dispose()
	require.Equal(t, 1, single.Size())

	empty, err := New[int, int](nil, nil, 0, nil, nil)
	require.NoError(t, err)
	defer empty.Dispose()
	require.Equal(t, 0, empty.Len())
	require.False(t, empty.ContainsKey(3))
}

func TestConstructionErrors(t *testing.T) {
	_, err := New([]int{1, 2, 1}, []int{1, 2, 3}, 0, nil, nil)
	require.ErrorIs(t, err, ErrDuplicateKey)

	_, err = New([]int{1, 2}, []int{1, 0}, 0, nil, nil)
	require.ErrorIs(t, err, ErrNullValue)

	_, err = New([]int{1, 2}, []int{1}, 0, nil, nil)
	require.ErrorIs(t, err, ErrLengthMismatch)

	constant := func(string) uint64 { return 7 }
	_, err = New([]string{"a", "b"}, []int{1, 2}, 0, nil, constant)
	require.ErrorIs(t, err, ErrHashCollision)
}

func BenchmarkTryGetValue(b *testing.B) {
	keys := make([]int, 1024)
	values := make([]int, 1024)
	for i := range keys {
		keys[i] = i
		values[i] = i + 1
	}
	m, err := New(keys, values, 0, nil, hashtable.IdentityHasher[int]())
	if err != nil {
		b.Fatal(err)
	}
	defer m.Dispose()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.TryGetValue(i & 1023)
	}
}
