package hashtable

import (
	"hash/maphash"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
)

// Hasher maps a key to a 64 bit hash. Only the low bits select a bucket, so a Hasher must mix
// entropy into them.
type Hasher[K any] func(key K) uint64

// Mix64 is the murmur3 finalizer. It spreads every input bit over the whole word.
func Mix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// IntegerHasher returns a mixing hasher for any integer key type
func IntegerHasher[K constraints.Integer]() Hasher[K] {
	return func(key K) uint64 { return Mix64(uint64(key)) }
}

// IdentityHasher returns the key itself as hash. Dense small integer keys end up in distinct
// buckets, which keeps perfect hash tables small.
func IdentityHasher[K constraints.Integer]() Hasher[K] {
	return func(key K) uint64 { return uint64(key) }
}

// StringHasher hashes strings with xxhash
func StringHasher() Hasher[string] {
	return xxhash.Sum64String
}

// DefaultHasher picks a hasher for K: xxhash for strings, Mix64 for the builtin integer kinds
// and maphash with a per-process seed for every other comparable type.
func DefaultHasher[K comparable]() Hasher[K] {
	var zero K
	switch any(zero).(type) {
	case string:
		return func(key K) uint64 { return xxhash.Sum64String(*(*string)(unsafe.Pointer(&key))) }
	case int:
		return func(key K) uint64 { return Mix64(uint64(*(*int)(unsafe.Pointer(&key)))) }
	case uint:
		return func(key K) uint64 { return Mix64(uint64(*(*uint)(unsafe.Pointer(&key)))) }
	case int64, uint64:
		return func(key K) uint64 { return Mix64(*(*uint64)(unsafe.Pointer(&key))) }
	case int32, uint32:
		return func(key K) uint64 { return Mix64(uint64(*(*uint32)(unsafe.Pointer(&key)))) }
	case int16, uint16:
		return func(key K) uint64 { return Mix64(uint64(*(*uint16)(unsafe.Pointer(&key)))) }
	case int8, uint8:
		return func(key K) uint64 { return Mix64(uint64(*(*uint8)(unsafe.Pointer(&key)))) }
	}
	return ComparableHasher[K]()
}

var processSeed = maphash.MakeSeed()

// ComparableHasher returns a maphash based hasher for any comparable key
func ComparableHasher[K comparable]() Hasher[K] {
	return func(key K) uint64 { return maphash.Comparable(processSeed, key) }
}
