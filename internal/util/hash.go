// Package util contains internal helpers (hashing, segment routing, padding).
package util

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Sum64 hashes common key types to a well-distributed 64-bit value.
// Supported: string, [16|32|64]byte, all int/uint widths, uintptr,
// fmt.Stringer. The hash is stable for the process lifetime, which is all
// routing needs; it is not portable across processes.
// Panicking on unsupported types is deliberate to avoid silently poor routing.
func Sum64[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case [16]byte:
		return xxhash.Sum64(v[:])
	case [32]byte:
		return xxhash.Sum64(v[:])
	case [64]byte:
		return xxhash.Sum64(v[:])

	// Integer-like keys: FNV-1a over the little-endian bytes, no allocation.
	case uint8:
		return sum64FromUint64(uint64(v))
	case uint16:
		return sum64FromUint64(uint64(v))
	case uint32:
		return sum64FromUint64(uint64(v))
	case uint64:
		return sum64FromUint64(v)
	case uint:
		return sum64FromUint64(uint64(v))
	case uintptr:
		return sum64FromUint64(uint64(v))
	case int8:
		return sum64FromUint64(uint64(uint8(v)))
	case int16:
		return sum64FromUint64(uint64(uint16(v)))
	case int32:
		return sum64FromUint64(uint64(uint32(v)))
	case int64:
		return sum64FromUint64(uint64(v))
	case int:
		return sum64FromUint64(uint64(v))

	// Fallback for pseudo-keys via String() (allocates; avoid if you can).
	case fmt.Stringer:
		return xxhash.Sum64String(v.String())
	default:
		panic(fmt.Sprintf("util.Sum64: unsupported key type %T; convert key to string", k))
	}
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

func sum64FromUint64(u uint64) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
