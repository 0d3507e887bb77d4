/*
Package multimap provides MultiHashMap, an unordered map from a key to any number of values,
and the writers that fill it from several workers at once.

The values of one key are visited with TryGetFirstValue and TryGetNextValue:

	for v, it, ok := m.TryGetFirstValue(key); ok; v, ok = m.TryGetNextValue(&it) {
		...
	}

An Iterator must not be used after a mutating call, which is checked unless the module is built
with the ucoll_unchecked tag.

Parallel inserts go through a ParallelWriter, which fails once the pre-sized table is full, or
through a FallbackWriter, which pushes the entries that did not fit onto an overflow queue.
The owner of a FallbackWriter must call Finalize after the parallel phase, also when nothing
overflowed.
*/
package multimap
