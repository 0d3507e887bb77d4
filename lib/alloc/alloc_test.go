package alloc_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	for _, l := range []alloc.Label{alloc.Persistent, alloc.TempJob, alloc.Temp} {
		parsed, err := alloc.ParseLabel(l.String())
		require.NoError(t, err)
		require.Equal(t, l, parsed)
	}
	_, err := alloc.ParseLabel("stack")
	require.Error(t, err)
	require.Equal(t, "invalid", alloc.LabelInvalid.String())
}

func TestHeapAllocator(t *testing.T) {
	h := alloc.NewHeapAllocator(alloc.Persistent)
	require.Equal(t, alloc.Persistent, h.Label())

	b1, err := h.Allocate(100, 8)
	require.NoError(t, err)
	require.True(t, b1.IsValid())
	require.Equal(t, 100, b1.Size())
	require.Equal(t, 8, b1.Align())
	require.Equal(t, alloc.Persistent, b1.Label())

	b2, err := h.Allocate(0, 64)
	require.NoError(t, err)
	require.NotEqual(t, b1.ID(), b2.ID())
	require.Equal(t, 2, h.LiveBlocks())
	require.EqualValues(t, 100, h.LiveBytes())
	require.Error(t, h.Close())

	require.NoError(t, h.Free(b1))
	require.ErrorIs(t, h.Free(b1), alloc.ErrDoubleFree)
	require.NoError(t, h.Free(b2))
	require.Equal(t, 0, h.LiveBlocks())
	require.NoError(t, h.Close())

	_, err = h.Allocate(-1, 8)
	require.ErrorIs(t, err, alloc.ErrInvalidSize)
	_, err = h.Allocate(8, 3)
	require.ErrorIs(t, err, alloc.ErrInvalidAlignment)
	_, err = h.Allocate(8, 0)
	require.ErrorIs(t, err, alloc.ErrInvalidAlignment)

	other := alloc.NewHeapAllocator(alloc.Temp)
	foreign, err := other.Allocate(8, 8)
	require.NoError(t, err)
	require.ErrorIs(t, h.Free(foreign), alloc.ErrForeignBlock)
	require.NoError(t, other.Free(foreign))
}

func TestHeapAllocatorConcurrent(t *testing.T) {
	h := alloc.NewHeapAllocator(alloc.Persistent)

	const goroutines = 8
	const perGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			blocks := make([]alloc.Block, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				b, err := h.Allocate(16, 16)
				if err != nil {
					t.Errorf("allocate: %v", err)
					return
				}
				blocks = append(blocks, b)
			}
			for _, b := range blocks {
				if err := h.Free(b); err != nil {
					t.Errorf("free: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 0, h.LiveBlocks())
	require.EqualValues(t, 0, h.LiveBytes())
}

func TestDefaultAllocator(t *testing.T) {
	require.Same(t, alloc.Default(), alloc.Default())
	require.Equal(t, alloc.Persistent, alloc.Default().Label())
}

func TestArenaAllocator(t *testing.T) {
	_, err := alloc.NewArenaAllocator(alloc.Temp, -1)
	require.Error(t, err)

	a, err := alloc.NewArenaAllocator(alloc.Temp, 256)
	require.NoError(t, err)
	require.Equal(t, 256, a.Budget())

	b1, err := a.Allocate(10, 8)
	require.NoError(t, err)
	require.Equal(t, 10, a.Used())

	// aligned to 64 -> starts at 64
	b2, err := a.Allocate(100, 64)
	require.NoError(t, err)
	require.Equal(t, 164, a.Used())

	_, err = a.Allocate(200, 8)
	require.ErrorIs(t, err, alloc.ErrArenaExhausted)

	// freeing the top block gives its bytes back
	require.NoError(t, a.Free(b2))
	require.Equal(t, 64, a.Used())
	require.ErrorIs(t, a.Free(b2), alloc.ErrDoubleFree)

	_, err = a.Allocate(150, 8)
	require.NoError(t, err)
	require.Equal(t, 2, a.LiveBlocks())

	a.Reset()
	require.Equal(t, 0, a.Used())
	require.Equal(t, 0, a.LiveBlocks())
	require.Error(t, a.Free(b1))

	_, err = a.Allocate(256, 1)
	require.NoError(t, err)
}

func TestTrackingAllocator(t *testing.T) {
	tr := alloc.NewTrackingAllocator(nil)
	require.Equal(t, alloc.Persistent, tr.Label())

	b1, err := tr.Allocate(32, 8)
	require.NoError(t, err)
	b2, err := tr.Allocate(4096, 64)
	require.NoError(t, err)

	require.EqualValues(t, 2, tr.Allocations())
	require.Equal(t, 2, tr.Outstanding())
	require.EqualValues(t, 32+4096, tr.OutstandingBytes())
	require.Error(t, tr.Check())
	require.EqualValues(t, 2, tr.Sizes().Count())

	require.NoError(t, tr.Free(b1))
	require.NoError(t, tr.Free(b2))
	require.NoError(t, tr.Check())

	err = tr.Free(b2)
	require.True(t, errors.Is(err, alloc.ErrDoubleFree))
	require.EqualValues(t, 1, tr.FailedFrees())
	require.Error(t, tr.Check())

	_, err = tr.Allocate(1, 5)
	require.ErrorIs(t, err, alloc.ErrInvalidAlignment)
	require.EqualValues(t, 2, tr.Allocations())
}

func TestTrackingOverArena(t *testing.T) {
	a, err := alloc.NewArenaAllocator(alloc.Temp, 64)
	require.NoError(t, err)
	tr := alloc.NewTrackingAllocator(a)
	require.Equal(t, alloc.Temp, tr.Label())

	_, err = tr.Allocate(128, 8)
	require.ErrorIs(t, err, alloc.ErrArenaExhausted)
	require.EqualValues(t, 0, tr.Allocations())
}

func TestLayout(t *testing.T) {
	var l alloc.Layout
	require.Equal(t, 0, alloc.AddRegion[int64](&l, 3))
	require.Equal(t, 24, alloc.AddRegion[byte](&l, 5))
	// int32 region aligned to 4 after 29 bytes
	require.Equal(t, 32, alloc.AddRegion[int32](&l, 2))
	require.Equal(t, 40, l.Size())
	require.Equal(t, []int{0, 24, 32}, l.Offsets())
	require.GreaterOrEqual(t, l.Align(), alloc.CacheLineSize)

	tr := alloc.NewTrackingAllocator(nil)
	b, err := alloc.AllocateLayout(tr, &l)
	require.NoError(t, err)
	require.Equal(t, 40, b.Size())
	require.NoError(t, tr.Free(b))
}

func TestRegion(t *testing.T) {
	tr := alloc.NewTrackingAllocator(nil)

	r, err := alloc.NewRegion[uint64](tr, 16)
	require.NoError(t, err)
	require.True(t, r.IsCreated())
	require.Equal(t, 16, r.Len())
	require.Equal(t, 128, r.Block().Size())

	r.Data[3] = 42
	require.NoError(t, r.Free(tr))
	require.False(t, r.IsCreated())
	require.Nil(t, r.Data)

	// freeing twice is a no-op on the region side
	require.NoError(t, r.Free(tr))
	require.NoError(t, tr.Check())

	_, err = alloc.NewRegion[byte](tr, -1)
	require.ErrorIs(t, err, alloc.ErrInvalidSize)
}
