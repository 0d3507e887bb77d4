//go:build !ucoll_unchecked

package hashtable

import (
	"testing"

	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/stretchr/testify/require"
)

func TestContractViolations(t *testing.T) {
	m, err := NewHashMapWithConfig[int, int](8, nil, Config[int]{Workers: 2})
	require.NoError(t, err)
	m.Add(1, 1)

	require.PanicsWithValue(t, safety.Violation{Component: component, Message: "key 1 is already present"}, func() { m.Add(1, 2) })
	require.PanicsWithValue(t, safety.Violation{Component: component, Message: "key 2 not found"}, func() { m.Get(2) })
	require.Panics(t, func() { _ = m.SetCapacity(4) }, "shrinking")
	require.Panics(t, func() { m.AsParallelWriter().TryAdd(2, 3, 3) }, "worker id out of range")

	require.NoError(t, m.Dispose())
	require.Panics(t, func() { m.Count() }, "use after dispose")
	require.Panics(t, func() { m.AsParallelWriter() })
}
