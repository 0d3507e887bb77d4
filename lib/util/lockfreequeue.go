// Package util
//
// This file provides a lock-free multi-producer queue with a single-threaded drain.
//
// Features and Guarantees:
//
//   - Lock-Free: producers append with a compare-and-swap on the tail node, no locks on any path
//   - Unbounded Size: the queue can grow to any size as needed, limited only by available memory
//   - Small Footprint: one node (value + next pointer) per item
//   - Thread-Safe writes: any number of goroutines may Push() concurrently
//   - Single Consumer: TryPop() and Drain() must only be called by one goroutine at a time,
//     and Drain() is meant to run after all producers finished (a barrier step)
//   - No Strict FIFO Guarantee: under concurrent Push() operations, the order of items is
//     determined by which producer completes its append first
package util

import (
	"runtime"
	"sync/atomic"
)

// node represents a single element in the queue
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFreeQueue is a lock-free multi-producer queue drained by a single consumer.
// Implementation uses a linked list of nodes behind a sentinel head.
type LockFreeQueue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	pushed atomic.Int64
	popped atomic.Int64
	closed atomic.Bool
}

// NewLockFreeQueue creates an empty queue
func NewLockFreeQueue[T any]() *LockFreeQueue[T] {
	sentinel := &node[T]{}

	q := &LockFreeQueue[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Push adds an item to the queue.
// Returns true if the item was added, or false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeQueue[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	newNode := &node[T]{value: value}

	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()

		next := tailNode.next.Load()
		if next == nil {
			// the tail has no next node yet, try to append our node
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already helped moving the tail, which is fine
				q.tail.CompareAndSwap(tailNode, newNode)
				q.pushed.Add(1)
				return true
			}
		} else {
			// help update the tail pointer if another producer appended but did not move it yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		/*
		 exponential backoff under contention:
		  - at low contention (<10 retries) yield a growing number of times
		  - afterwards yield once per retry
		*/
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// TryPop removes the oldest visible item.
//
// Thread-safety: only one goroutine may consume at a time.
func (q *LockFreeQueue[T]) TryPop() (T, bool) {
	var zero T

	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return zero, false
	}

	value := next.value
	q.head.Store(next)

	// the new sentinel must not keep the value alive
	next.value = zero
	q.popped.Add(1)
	return value, true
}

// Drain pops every item and passes it to fn, returning the number of drained items.
//
// Thread-safety: must be called after all producers finished, by a single goroutine.
func (q *LockFreeQueue[T]) Drain(fn func(T)) int {
	n := 0
	for {
		value, ok := q.TryPop()
		if !ok {
			return n
		}
		fn(value)
		n++
	}
}

// Close prevents further pushes. Items already in the queue can still be drained.
func (q *LockFreeQueue[T]) Close() {
	q.closed.Store(true)
}

// IsClosed returns true if the queue is closed.
func (q *LockFreeQueue[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of items pushed but not yet popped.
// The value is exact once producers are quiescent.
func (q *LockFreeQueue[T]) Len() int {
	return int(q.pushed.Load() - q.popped.Load())
}

// Pushed returns the total number of items ever pushed.
func (q *LockFreeQueue[T]) Pushed() int64 {
	return q.pushed.Load()
}
