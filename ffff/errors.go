package ffff

import (
	"errors"
	"fmt"
)

// ValidationKind identifies the specific structural rule a romimage
// header violated. Callers and tests can branch on the kind rather
// than matching error strings.
type ValidationKind int

// Validation failure kinds.
const (
	// KindImageTooSmall means the file cannot hold two minimum headers
	KindImageTooSmall ValidationKind = iota + 1

	// KindBadSentinel means a leading or trailing sentinel mismatch
	KindBadSentinel

	// KindEraseBlockSize means erase_block_size is zero, not a power
	// of two, or above EraseBlockSizeMax
	KindEraseBlockSize

	// KindFlashCapacity means flash_capacity is smaller than two
	// erase blocks
	KindFlashCapacity

	// KindImageLength means flash_image_length exceeds flash_capacity
	KindImageLength

	// KindHeaderSize means header_size is outside [HeaderSizeMin,
	// HeaderSizeMax] or disagrees with the region it was read from
	KindHeaderSize

	// KindReservedNotZero means a reserved header word is non-zero
	KindReservedNotZero

	// KindElementType means an element has an undefined type code
	KindElementType

	// KindElementAlignment means an element location is not a
	// multiple of erase_block_size
	KindElementAlignment

	// KindElementReserved means an element intrudes into the region
	// reserved for the header copies
	KindElementReserved

	// KindElementBounds means an element runs past flash_image_length
	KindElementBounds

	// KindElementOverlap means two elements' byte ranges intersect
	KindElementOverlap

	// KindElementDuplicate means two elements share the same
	// (type, id, generation) triple
	KindElementDuplicate

	// KindNoEndMarker means the element table has no end-of-table
	// entry within the header's capacity
	KindNoEndMarker

	// KindPaddingNotZero means a byte between the end of the element
	// table and the trailing sentinel is non-zero
	KindPaddingNotZero
)

func (k ValidationKind) String() string {
	switch k {
	case KindImageTooSmall:
		return "image too small"
	case KindBadSentinel:
		return "bad sentinel"
	case KindEraseBlockSize:
		return "bad erase block size"
	case KindFlashCapacity:
		return "flash capacity too small"
	case KindImageLength:
		return "image length exceeds capacity"
	case KindHeaderSize:
		return "header size out of range"
	case KindReservedNotZero:
		return "reserved field not zero"
	case KindElementType:
		return "invalid element type"
	case KindElementAlignment:
		return "element not block aligned"
	case KindElementReserved:
		return "element in reserved header region"
	case KindElementBounds:
		return "element out of bounds"
	case KindElementOverlap:
		return "overlapping elements"
	case KindElementDuplicate:
		return "duplicate element"
	case KindNoEndMarker:
		return "no end-of-table marker"
	case KindPaddingNotZero:
		return "element table padding not zero"
	}
	return "unknown validation failure"
}

// ValidationError reports why a header or element failed structural
// validation. Element is the index of the offending element table
// entry, or -1 for header-level failures.
type ValidationError struct {
	Kind    ValidationKind
	Element int
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Element >= 0 {
		if e.Detail != "" {
			return fmt.Sprintf("element %d: %s: %s", e.Element, e.Kind, e.Detail)
		}
		return fmt.Sprintf("element %d: %s", e.Element, e.Kind)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return e.Kind.String()
}

// AsValidationError returns the first ValidationError in err's chain,
// if any. Aggregated errors (errors.Join) are searched in order.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsKind reports whether err's chain contains a ValidationError of
// the given kind.
func IsKind(err error, kind ValidationKind) bool {
	for err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) && ve.Kind == kind {
			return true
		}
		// Walk joined errors one branch at a time.
		joined, ok := err.(interface{ Unwrap() []error })
		if ok {
			for _, sub := range joined.Unwrap() {
				if IsKind(sub, kind) {
					return true
				}
			}
			return false
		}
		err = errors.Unwrap(err)
	}
	return false
}

// CacheFullError indicates the element cache has no room for another
// entry. Capacity is the fixed limit derived from HeaderSizeMax.
type CacheFullError struct {
	Capacity int
}

func (e *CacheFullError) Error() string {
	return fmt.Sprintf("element cache full: capacity is %d elements", e.Capacity)
}

// NoOpenElementError indicates a cache mutation was attempted while
// no element was under construction.
type NoOpenElementError struct {
	// Op is the attribute the caller tried to set
	Op string
}

func (e *NoOpenElementError) Error() string {
	return fmt.Sprintf("cannot set element %s: no open element", e.Op)
}

// FitError indicates an element payload does not fit inside the
// declared image length.
type FitError struct {
	Type        ElementType
	ID          uint32
	Location    uint32
	Length      uint32
	ImageLength uint32
}

func (e *FitError) Error() string {
	return fmt.Sprintf("%s (id 0x%08X) at 0x%08X + 0x%X bytes does not fit in image of 0x%X bytes",
		e.Type, e.ID, e.Location, e.Length, e.ImageLength)
}
