package util

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
	"time"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed for hash functions and per-worker random state
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the clock, only if the system source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// --------------------------------------------------------------------------
// Power-of-two helpers
// --------------------------------------------------------------------------

// IsPowerOfTwo reports whether n is a power of two (n > 0)
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// CeilPowerOfTwo returns the smallest power of two >= n (1 for n <= 1)
func CeilPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// BucketCapacityFor returns the bucket count used for a table holding capacity entries.
// The table keeps at least two buckets per entry so chains stay short.
func BucketCapacityFor(capacity int) int {
	return CeilPowerOfTwo(capacity * 2)
}
