//go:build !ucoll_unchecked

package keyedmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeysOutOfRange(t *testing.T) {
	m, err := New[int, int](4, 4, nil)
	require.NoError(t, err)
	defer m.Dispose()

	require.Panics(t, func() { m.Add(4, 1) })
	require.Panics(t, func() { m.Add(-1, 1) })
	require.Panics(t, func() { m.ContainsKey(100) })
	require.Panics(t, func() { m.SetCount(5) })
	require.Panics(t, func() { _ = m.SetCapacity(2) })

	p, err := NewPartial[uint8, int](4, nil)
	require.NoError(t, err)
	defer p.Dispose()
	require.Panics(t, func() { _ = p.Update([]uint8{0, 9}, []int{1, 2}, 2) })
	require.Panics(t, func() { _ = p.Update([]uint8{0}, []int{1}, 2) })
}
