package alloc

import (
	"fmt"
	"unsafe"
)

// Region is a typed buffer whose lifetime is owned by one Block.
type Region[T any] struct {
	Data  []T
	block Block
}

// NewRegion allocates a region of n zeroed elements
func NewRegion[T any](a Allocator, n int) (Region[T], error) {
	if n < 0 {
		return Region[T]{}, fmt.Errorf("%w: region length %d", ErrInvalidSize, n)
	}
	var zero T
	block, err := a.Allocate(int(unsafe.Sizeof(zero))*n, max(int(unsafe.Alignof(zero)), CacheLineSize))
	if err != nil {
		return Region[T]{}, err
	}
	return Region[T]{Data: make([]T, n), block: block}, nil
}

// Len returns the number of elements
func (r *Region[T]) Len() int { return len(r.Data) }

// Block returns the owning block
func (r *Region[T]) Block() Block { return r.block }

// IsCreated reports whether the region holds a block
func (r *Region[T]) IsCreated() bool { return r.block.IsValid() }

// Free releases the owning block and clears the region
func (r *Region[T]) Free(a Allocator) error {
	if !r.block.IsValid() {
		return nil
	}
	err := a.Free(r.block)
	r.Data = nil
	r.block = Block{}
	return err
}
