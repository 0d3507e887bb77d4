package alloc

import (
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/ucoll/lib/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// TrackingAllocator wraps an upstream allocator and counts every call.
// It is used to verify that a collection frees exactly the blocks it allocated.
type TrackingAllocator struct {
	upstream    Allocator
	allocations atomic.Int64
	frees       atomic.Int64
	failedFrees atomic.Int64
	outstanding *xsync.MapOf[uint64, Block]
	bytes       atomic.Int64
	sizes       *util.SizeHistogram
}

// NewTrackingAllocator wraps upstream. A nil upstream uses a fresh persistent heap allocator.
func NewTrackingAllocator(upstream Allocator) *TrackingAllocator {
	if upstream == nil {
		upstream = NewHeapAllocator(Persistent)
	}
	return &TrackingAllocator{
		upstream:    upstream,
		outstanding: xsync.NewMapOf[uint64, Block](),
		sizes:       util.NewSizeHistogram(),
	}
}

var _ Allocator = (*TrackingAllocator)(nil)

func (t *TrackingAllocator) Label() Label { return t.upstream.Label() }

// Allocate forwards to the upstream allocator and records the block
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TrackingAllocator) Allocate(size, align int) (Block, error) {
	block, err := t.upstream.Allocate(size, align)
	if err != nil {
		return Block{}, err
	}
	t.allocations.Add(1)
	t.bytes.Add(int64(size))
	t.outstanding.Store(block.id, block)
	t.sizes.AddSample(size)
	return block, nil
}

// Free forwards to the upstream allocator. Frees of unknown blocks are counted and rejected.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TrackingAllocator) Free(block Block) error {
	if _, loaded := t.outstanding.LoadAndDelete(block.id); !loaded {
		t.failedFrees.Add(1)
		return fmt.Errorf("%w: %s", ErrDoubleFree, block)
	}
	t.frees.Add(1)
	t.bytes.Add(-int64(block.size))
	return t.upstream.Free(block)
}

// Allocations returns the number of successful Allocate calls
func (t *TrackingAllocator) Allocations() int64 { return t.allocations.Load() }

// Frees returns the number of successful Free calls
func (t *TrackingAllocator) Frees() int64 { return t.frees.Load() }

// FailedFrees returns the number of rejected Free calls (double or foreign frees)
func (t *TrackingAllocator) FailedFrees() int64 { return t.failedFrees.Load() }

// Outstanding returns the number of blocks not yet freed
func (t *TrackingAllocator) Outstanding() int { return t.outstanding.Size() }

// OutstandingBytes returns the number of bytes not yet freed
func (t *TrackingAllocator) OutstandingBytes() int64 { return t.bytes.Load() }

// Sizes returns the histogram of allocated block sizes
func (t *TrackingAllocator) Sizes() *util.SizeHistogram { return t.sizes }

// Check returns an error if blocks are outstanding or a free was rejected
func (t *TrackingAllocator) Check() error {
	if n := t.Outstanding(); n != 0 {
		return fmt.Errorf("alloc: %d blocks outstanding (%d allocations, %d frees)", n, t.Allocations(), t.Frees())
	}
	if n := t.FailedFrees(); n != 0 {
		return fmt.Errorf("alloc: %d rejected frees", n)
	}
	return nil
}
