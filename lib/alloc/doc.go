// Package alloc provides the allocator shim every collection in this module is parametric over.
//
// An Allocator hands out Blocks: sized, aligned reservations tagged with the Label of the
// allocator that created them. A collection requests one Block per owned memory layout on
// creation and on every growth step, and returns exactly those Blocks on Dispose. The backing
// storage of the typed regions is owned by the Go runtime; the allocator owns the lifetime
// accounting and, for the arena, the byte budget.
//
// Implementations:
//   - HeapAllocator: thread-safe, unbounded, label Persistent. Tracks live blocks and exports
//     metrics per label.
//   - ArenaAllocator: bump allocator with a fixed budget, label Temp. Reset() releases every
//     block at once and starts a new generation.
//   - TrackingAllocator: decorator counting Allocate/Free calls, outstanding blocks and bytes,
//     detecting double frees. Used by the tests to prove that disposal releases exactly what
//     was allocated.
//
// Layout computes the size and alignment of several parallel regions placed in one block,
// the way the bucket tables place values, keys, next links and bucket heads.
package alloc
