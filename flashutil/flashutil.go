// Package flashutil provides low-level helpers for flash memory layout
// math: block-boundary rounding, alignment checks, half-open range
// overlap tests, constant-fill scans and fixed-width string fields.
//
// All offsets and lengths are uint32 because they describe positions
// inside a flash part, not positions in host memory. Arithmetic wraps
// the way a 32-bit flash address bus wraps.
package flashutil

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// NextBoundary returns the first multiple of blockSize at or after
// offset. blockSize must be a non-zero power of two; a zero blockSize
// returns offset unchanged.
func NextBoundary(offset, blockSize uint32) uint32 {
	if blockSize == 0 {
		return offset
	}
	return (offset + blockSize - 1) &^ (blockSize - 1)
}

// IsAligned reports whether offset is a multiple of blockSize.
// A zero blockSize treats every offset as aligned.
func IsAligned(offset, blockSize uint32) bool {
	if blockSize == 0 {
		return true
	}
	return offset&(blockSize-1) == 0
}

// Overlap reports whether the half-open ranges [aStart, aStart+aLen)
// and [bStart, bStart+bLen) intersect. Zero-length ranges never
// overlap anything. The comparison is done in 64 bits so that ranges
// reaching the top of the 32-bit address space are handled exactly.
func Overlap(aStart, aLen, bStart, bLen uint32) bool {
	if aLen == 0 || bLen == 0 {
		return false
	}
	aEnd := uint64(aStart) + uint64(aLen)
	bEnd := uint64(bStart) + uint64(bLen)
	return uint64(aStart) < bEnd && uint64(bStart) < aEnd
}

// IsFilledWith reports whether every byte of b equals fill.
// An empty slice is considered filled.
func IsFilledWith(b []byte, fill byte) bool {
	for _, v := range b {
		if v != fill {
			return false
		}
	}
	return true
}

// PutFixedString copies s into the fixed-width field dst, NUL-padding
// the remainder. Strings longer than the field are truncated.
func PutFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// FixedString returns the string stored in a fixed-width NUL-padded
// field, without the padding.
func FixedString(b []byte) string {
	for i, v := range b {
		if v == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
