// Package safety provides the contract checks used by every collection in this module.
//
// The checks cover caller contract violations that the collections cannot recover from:
//   - keys outside the declared range of a dense keyed map
//   - shrinking a growth-only capacity
//   - using a collection after Dispose
//   - inserting a duplicate key through Add on a single value map
//
// Checks are enabled by default. Building with the ucoll_unchecked tag compiles them out:
//
//	go build -tags ucoll_unchecked ./...
//
// Without checks a violation is undefined behaviour as far as the collections are concerned,
// but the Go runtime still bounds it (slice bounds checks), so it never corrupts memory.
package safety
