// Package util provides shared building blocks for the collections in this module.
//
// The package contains:
//   - lockfreequeue: an unbounded lock-free multi-producer queue with a single-threaded drain,
//     used as the overflow path of the parallel multi map writer
//   - statistics: distribution statistics (used for bucket chain lengths) and a SizeHistogram
//     for tracking the sizes of allocated blocks
//   - functions: seeds and power-of-two helpers used to size tables
package util
