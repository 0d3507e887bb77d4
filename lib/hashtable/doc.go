/*
Package hashtable implements the bucketed hash table shared by the map flavors of ucoll.

A Table stores keys, values and next links in parallel regions allocated as one block from an
alloc.Allocator, plus a power-of-two bucket array. Every bucket holds the index of the first
entry of its chain, -1 for an empty bucket. Free slots are tracked per worker (see the internal
freelist package) so that writers running in parallel can claim slots without a lock and
publish them with a compare-and-swap on the bucket head.

The table has two phases:

  - single-threaded: every operation may be used, including growth and removal
  - parallel: only TryAddParallel and TryAddUniqueParallel may run, each worker with its own
    worker id. The phase ends when the caller joins the workers.

HashMap is the single-value map built on Table. The multi-value and dense-key maps live in
their own packages.
*/
package hashtable
