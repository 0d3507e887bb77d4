package alloc

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// arenaIDs is shared by all arenas so block ids stay unique across Reset generations
var arenaIDs atomic.Uint64

// ArenaAllocator is a bump allocator over a fixed byte budget.
// Individual frees only update the accounting; the budget is reclaimed by Reset.
type ArenaAllocator struct {
	mu      sync.Mutex
	label   Label
	budget  int
	offset  int
	live    map[uint64]Block
	metrics labelMetrics
}

// NewArenaAllocator creates an arena with the given budget in bytes
func NewArenaAllocator(label Label, budget int) (*ArenaAllocator, error) {
	if budget < 0 {
		return nil, fmt.Errorf("%w: arena budget %d", ErrInvalidSize, budget)
	}
	return &ArenaAllocator{
		label:   label,
		budget:  budget,
		live:    make(map[uint64]Block),
		metrics: newLabelMetrics("arena", label),
	}, nil
}

var _ Allocator = (*ArenaAllocator)(nil)

func (a *ArenaAllocator) Label() Label { return a.label }

// Allocate bumps the arena offset
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *ArenaAllocator) Allocate(size, align int) (Block, error) {
	if err := validateRequest(size, align); err != nil {
		a.metrics.failures.Inc()
		return Block{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	offset := alignUp(a.offset, align)
	if offset+size > a.budget {
		a.metrics.failures.Inc()
		return Block{}, fmt.Errorf("%w: need %d bytes at offset %d, budget %d", ErrArenaExhausted, size, offset, a.budget)
	}
	a.offset = offset + size

	block := Block{
		id:     arenaIDs.Add(1),
		size:   size,
		align:  align,
		offset: offset,
		label:  a.label,
	}
	a.live[block.id] = block
	a.metrics.allocated(size)
	return block, nil
}

// Free releases the block from the accounting. The bytes stay used until Reset.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (a *ArenaAllocator) Free(block Block) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.live[block.id]; !ok {
		a.metrics.failures.Inc()
		if block.label != a.label {
			return fmt.Errorf("%w: %s", ErrForeignBlock, block)
		}
		return fmt.Errorf("%w: %s", ErrDoubleFree, block)
	}
	delete(a.live, block.id)
	a.metrics.freed(block.size)

	// the most recent block can be popped off the arena
	if block.offset+block.size == a.offset {
		a.offset = block.offset
	}
	return nil
}

// Reset releases every block at once. Blocks handed out before must not be freed afterwards.
func (a *ArenaAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, block := range a.live {
		a.metrics.freed(block.size)
	}
	if len(a.live) > 0 {
		plog.Debugf("%s arena reset with %d live blocks", a.label, len(a.live))
	}
	clear(a.live)
	a.offset = 0
}

// Used returns the number of budget bytes in use
func (a *ArenaAllocator) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

// Budget returns the total budget in bytes
func (a *ArenaAllocator) Budget() int { return a.budget }

// LiveBlocks returns the number of blocks not yet freed
func (a *ArenaAllocator) LiveBlocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}
