package alloc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("alloc")

// HeapAllocator is an unbounded, thread-safe allocator.
// Every live block is recorded so frees of unknown blocks are detected.
type HeapAllocator struct {
	label   Label
	nextID  atomic.Uint64
	live    *xsync.MapOf[uint64, Block]
	bytes   *xsync.Counter
	metrics labelMetrics
}

// NewHeapAllocator creates a heap allocator for the given label
func NewHeapAllocator(label Label) *HeapAllocator {
	return &HeapAllocator{
		label:   label,
		live:    xsync.NewMapOf[uint64, Block](),
		bytes:   xsync.NewCounter(),
		metrics: newLabelMetrics("heap", label),
	}
}

var (
	persistentOnce sync.Once
	persistent     *HeapAllocator
)

// Default returns the process wide persistent heap allocator
func Default() *HeapAllocator {
	persistentOnce.Do(func() {
		persistent = NewHeapAllocator(Persistent)
	})
	return persistent
}

var _ Allocator = (*HeapAllocator)(nil)

func (h *HeapAllocator) Label() Label { return h.label }

// Allocate reserves a block
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *HeapAllocator) Allocate(size, align int) (Block, error) {
	if err := validateRequest(size, align); err != nil {
		h.metrics.failures.Inc()
		return Block{}, err
	}

	block := Block{
		id:    h.nextID.Add(1),
		size:  size,
		align: align,
		label: h.label,
	}
	h.live.Store(block.id, block)
	h.bytes.Add(int64(size))
	h.metrics.allocated(size)
	return block, nil
}

// Free releases a block
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (h *HeapAllocator) Free(block Block) error {
	if block.label != h.label {
		h.metrics.failures.Inc()
		return fmt.Errorf("%w: %s freed through %s allocator", ErrForeignBlock, block, h.label)
	}
	if _, loaded := h.live.LoadAndDelete(block.id); !loaded {
		h.metrics.failures.Inc()
		return fmt.Errorf("%w: %s", ErrDoubleFree, block)
	}
	h.bytes.Add(-int64(block.size))
	h.metrics.freed(block.size)
	return nil
}

// LiveBlocks returns the number of blocks not yet freed
func (h *HeapAllocator) LiveBlocks() int { return h.live.Size() }

// LiveBytes returns the number of bytes not yet freed
func (h *HeapAllocator) LiveBytes() int64 { return h.bytes.Value() }

// Close reports leaked blocks. The allocator stays usable.
func (h *HeapAllocator) Close() error {
	n := h.live.Size()
	if n == 0 {
		return nil
	}
	plog.Warningf("%s heap allocator closed with %d live blocks (%d bytes)", h.label, n, h.bytes.Value())
	return fmt.Errorf("alloc: %d blocks leaked", n)
}
