package alloc

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the alignment used for collection memory layouts.
const CacheLineSize = int(unsafe.Sizeof(cpu.CacheLinePad{}))

var (
	ErrInvalidSize      = errors.New("alloc: invalid size")
	ErrInvalidAlignment = errors.New("alloc: alignment must be a power of two")
	ErrArenaExhausted   = errors.New("alloc: arena exhausted")
	ErrDoubleFree       = errors.New("alloc: block freed twice")
	ErrForeignBlock     = errors.New("alloc: block does not belong to this allocator")
)

// --------------------------------------------------------------------------
// Label
// --------------------------------------------------------------------------

// Label identifies the lifetime class of an allocator
type Label uint8

const (
	LabelInvalid Label = iota
	Persistent
	TempJob
	Temp
)

func (l Label) String() string {
	switch l {
	case Persistent:
		return "persistent"
	case TempJob:
		return "temp_job"
	case Temp:
		return "temp"
	default:
		return "invalid"
	}
}

// ParseLabel converts a label name to a Label
func ParseLabel(s string) (Label, error) {
	switch s {
	case "persistent":
		return Persistent, nil
	case "temp_job", "tempjob":
		return TempJob, nil
	case "temp":
		return Temp, nil
	default:
		return LabelInvalid, fmt.Errorf("invalid allocator label %q", s)
	}
}

// --------------------------------------------------------------------------
// Block
// --------------------------------------------------------------------------

// Block is a sized and aligned reservation handed out by an Allocator.
// The zero Block is invalid.
type Block struct {
	id     uint64
	size   int
	align  int
	offset int
	label  Label
}

func (b Block) ID() uint64     { return b.id }
func (b Block) Size() int      { return b.size }
func (b Block) Align() int     { return b.align }
func (b Block) Label() Label   { return b.label }
func (b Block) IsValid() bool  { return b.id != 0 }
func (b Block) String() string { return fmt.Sprintf("Block{ID: %d, Size: %d, Align: %d, Label: %s}", b.id, b.size, b.align, b.label) }

// --------------------------------------------------------------------------
// Allocator Interface
// --------------------------------------------------------------------------

// Allocator hands out and releases blocks.
//
// Thread-safety: implementations must be safe for concurrent Allocate and Free calls.
// Collections only call them from single-threaded setup, growth and teardown phases.
type Allocator interface {
	// Label returns the lifetime class of the allocator
	Label() Label

	// Allocate reserves size bytes aligned to align (a power of two)
	Allocate(size, align int) (Block, error)

	// Free releases a block previously returned by Allocate
	Free(block Block) error
}

func validateRequest(size, align int) error {
	if size < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, align)
	}
	return nil
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
