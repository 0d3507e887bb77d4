//go:build !ucoll_unchecked

package workqueue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUseAfterDispose(t *testing.T) {
	q, err := New[int](4, nil)
	require.NoError(t, err)
	require.NoError(t, q.Dispose())

	require.Panics(t, func() { q.Update() })
	require.Panics(t, func() { q.AsWriter() })
	require.Panics(t, func() { q.AsReader() })
}
