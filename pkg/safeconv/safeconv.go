// Package safeconv converts between integer types of the tree-sitter and
// git APIs without silent wraparound.
package safeconv

import "math"

// Unsigned is any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// MustInt converts an unsigned value to int, panicking when it does not fit.
// Use only for offsets and positions that are bounded by an in-memory buffer.
func MustInt[T Unsigned](v T) int {
	if uint64(v) > math.MaxInt {
		panic("safeconv: value overflows int")
	}

	return int(v)
}

// Size converts a signed byte count to uint64. Negative counts become zero.
func Size(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
