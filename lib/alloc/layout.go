package alloc

import "unsafe"

// Layout accumulates parallel regions that live in one block.
// Every region starts at an offset aligned to its element alignment.
type Layout struct {
	size    int
	align   int
	offsets []int
}

// Add appends a region of size bytes aligned to align and returns its offset
func (l *Layout) Add(size, align int) int {
	if align < 1 {
		align = 1
	}
	offset := alignUp(l.size, align)
	l.size = offset + size
	if align > l.align {
		l.align = align
	}
	l.offsets = append(l.offsets, offset)
	return offset
}

// Size returns the total size of the layout
func (l *Layout) Size() int { return l.size }

// Align returns the alignment of the layout, at least one cache line
func (l *Layout) Align() int { return max(l.align, CacheLineSize) }

// Offsets returns the offset of every region in insertion order
func (l *Layout) Offsets() []int { return l.offsets }

// AddRegion appends a region of n elements of T to the layout
func AddRegion[T any](l *Layout, n int) int {
	var zero T
	return l.Add(int(unsafe.Sizeof(zero))*n, int(unsafe.Alignof(zero)))
}

// AllocateLayout allocates one block large enough for the layout
func AllocateLayout(a Allocator, l *Layout) (Block, error) {
	return a.Allocate(l.Size(), l.Align())
}
