// Package threadlocal provides per-worker storage padded to cache lines.
//
// Slots holds one record per worker. Adjacent records are separated by at least one cache
// line so workers writing their own record never contend on a shared line. There is no
// locking: a worker may only touch the record of its own WorkerID during a parallel phase,
// and code on the orchestrating goroutine may touch any record between phases.
//
// RandomCache and ListCache are the two caches built on Slots: per-worker random number
// state and per-worker scratch slices.
package threadlocal
