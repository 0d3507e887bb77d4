package freelist

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func claimAll(t *testing.T, l *List, next []int32, workers int) [][]int32 {
	t.Helper()
	claimed := make([][]int32, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for {
				idx := l.Claim(w, next)
				if idx == Empty {
					return
				}
				claimed[w] = append(claimed[w], idx)
			}
		}(w)
	}
	wg.Wait()
	return claimed
}

func TestClaimNoDoubleClaim(t *testing.T) {
	for _, capacity := range []int{1, 15, 16, 17, 1000, 4099} {
		var l List
		l.Init(8, capacity)
		next := make([]int32, capacity)

		seen := make(map[int32]int, capacity)
		for _, part := range claimAll(t, &l, next, 8) {
			for _, idx := range part {
				seen[idx]++
			}
		}

		require.Len(t, seen, capacity, "capacity %d", capacity)
		for idx, n := range seen {
			require.Equal(t, 1, n, "index %d claimed %d times", idx, n)
			require.True(t, idx >= 0 && int(idx) < capacity)
		}
		require.Equal(t, capacity, l.Allocated())
		require.Equal(t, 0, l.FreeCount(next))
	}
}

func TestClaimStealsFromOtherWorkers(t *testing.T) {
	var l List
	l.Init(2, 16)
	next := make([]int32, 16)

	// worker 0 takes the only block and keeps 15 indices in its chain
	require.Equal(t, int32(0), l.Claim(0, next))
	require.Equal(t, 15, l.FreeCount(next))

	// worker 1 finds the cursor exhausted and steals
	for i := 0; i < 15; i++ {
		idx := l.Claim(1, next)
		require.NotEqual(t, Empty, idx)
	}
	require.Equal(t, Empty, l.Claim(1, next))
	require.Equal(t, Empty, l.Claim(0, next))
	require.Equal(t, 16, l.Used(next))
}

func TestReturnIsClaimedFirst(t *testing.T) {
	var l List
	l.Init(2, 32)
	next := make([]int32, 32)

	idx := l.Claim(1, next)
	l.Return(1, idx)
	require.Equal(t, 0, l.Used(next), "the spare counts as free")
	require.Equal(t, idx, l.Claim(1, next))
}

func TestSingleThreadedReleaseAndClaim(t *testing.T) {
	var l List
	l.Init(4, 4)
	next := make([]int32, 4)

	for i := int32(0); i < 4; i++ {
		require.Equal(t, i, l.ClaimSingle(next))
	}
	require.Equal(t, Empty, l.ClaimSingle(next))
	require.Equal(t, 4, l.Used(next))

	l.Release(0, 2, next)
	l.Release(0, 1, next)
	require.Equal(t, 2, l.Used(next))
	require.Equal(t, int32(1), l.ClaimSingle(next))
	require.Equal(t, int32(2), l.ClaimSingle(next))
	require.Equal(t, Empty, l.ClaimSingle(next))
}

func TestSetCapacityClampsCursor(t *testing.T) {
	var l List
	l.Init(4, 20)
	next := make([]int32, 20)

	// two workers push the cursor to 32 while the capacity is 20
	require.Equal(t, int32(0), l.Claim(0, next))
	require.Equal(t, int32(16), l.Claim(1, next))
	require.Equal(t, 20, l.Allocated())

	grown := make([]int32, 40)
	copy(grown, next)
	l.SetCapacity(40)
	require.Equal(t, 20, l.Allocated())
	require.Equal(t, int32(20), l.Claim(2, grown))
}

func TestResetForgetsChains(t *testing.T) {
	var l List
	l.Init(2, 64)
	next := make([]int32, 64)

	l.Claim(0, next)
	l.Claim(1, next)
	l.Reset()
	require.Equal(t, 0, l.Allocated())
	require.Equal(t, 0, l.FreeCount(next))
	require.Equal(t, int32(0), l.ClaimSingle(next))
}
