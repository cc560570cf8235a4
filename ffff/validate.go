package ffff

import (
	"fmt"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// ValidateHeader checks one header copy against the full structural
// contract a bootloader ROM relies on: sentinels, size bounds, the
// element table rules and the zero-fill of unused table space.
//
// The first violated rule is returned as a *ValidationError carrying
// the specific kind; nil means the header is acceptable.
func ValidateHeader(h *Header) error {
	if !h.sentinelsOK() {
		return &ValidationError{Kind: KindBadSentinel, Element: -1}
	}

	ebs := h.EraseBlockSize()
	if !flashutil.IsPowerOfTwo(ebs) || ebs > EraseBlockSizeMax {
		return &ValidationError{Kind: KindEraseBlockSize, Element: -1,
			Detail: fmt.Sprintf("0x%X", ebs)}
	}

	capacity := h.FlashCapacity()
	if capacity < 2*ebs {
		return &ValidationError{Kind: KindFlashCapacity, Element: -1,
			Detail: fmt.Sprintf("0x%X is less than two erase blocks of 0x%X", capacity, ebs)}
	}

	imageLength := h.FlashImageLength()
	if imageLength > capacity {
		return &ValidationError{Kind: KindImageLength, Element: -1,
			Detail: fmt.Sprintf("0x%X exceeds capacity 0x%X", imageLength, capacity)}
	}

	size := h.HeaderSize()
	if size < HeaderSizeMin || size > HeaderSizeMax {
		return &ValidationError{Kind: KindHeaderSize, Element: -1,
			Detail: fmt.Sprintf("0x%X", size)}
	}
	if int(size) != len(h.b) {
		return &ValidationError{Kind: KindHeaderSize, Element: -1,
			Detail: fmt.Sprintf("field says 0x%X but region holds 0x%X", size, len(h.b))}
	}

	if !h.reservedZero() {
		return &ValidationError{Kind: KindReservedNotZero, Element: -1}
	}

	endFound := false
	max := h.MaxElements()
	for i := 0; i < max; i++ {
		e := h.Element(i)
		if e.IsEnd() {
			endFound = true
			break
		}
		if err := validateElement(h, i, e); err != nil {
			return err
		}
	}
	if !endFound {
		return &ValidationError{Kind: KindNoEndMarker, Element: -1}
	}

	if !h.paddingZero() {
		return &ValidationError{Kind: KindPaddingNotZero, Element: -1}
	}

	return nil
}

// validateElement checks the non-end entry e at table index i of h,
// including the forward scan for overlaps and duplicate identities
// against every later entry.
func validateElement(h *Header, i int, e Element) error {
	if !e.Type().Valid() {
		return &ValidationError{Kind: KindElementType, Element: i,
			Detail: fmt.Sprintf("0x%02X", byte(e.Type()))}
	}

	// The reserved-region and bounds checks use wrapping 32-bit
	// arithmetic on purpose: real flash addresses wrap, and any
	// garbage a wrapped range lets through fails the other checks.
	ebs := h.EraseBlockSize()
	loc := e.Location()
	if loc < h.flashAddr+ebs {
		return &ValidationError{Kind: KindElementReserved, Element: i,
			Detail: fmt.Sprintf("location 0x%08X is below 0x%08X", loc, h.flashAddr+ebs)}
	}
	if loc+e.Length()-1 >= h.FlashImageLength() {
		return &ValidationError{Kind: KindElementBounds, Element: i,
			Detail: fmt.Sprintf("location 0x%08X + 0x%X bytes runs past image length 0x%X",
				loc, e.Length(), h.FlashImageLength())}
	}
	if !flashutil.IsAligned(loc, ebs) {
		return &ValidationError{Kind: KindElementAlignment, Element: i,
			Detail: fmt.Sprintf("location 0x%08X is not a multiple of 0x%X", loc, ebs)}
	}

	// Scan strictly forward so each pair is reported once, against
	// the earlier of the two entries.
	max := h.MaxElements()
	for j := i + 1; j < max; j++ {
		other := h.Element(j)
		if other.IsEnd() {
			break
		}
		if e.Overlaps(other) {
			return &ValidationError{Kind: KindElementOverlap, Element: i,
				Detail: fmt.Sprintf("collides with element %d", j)}
		}
		if e.SameIdentity(other) {
			return &ValidationError{Kind: KindElementDuplicate, Element: i,
				Detail: fmt.Sprintf("element %d repeats type %s, id 0x%08X, generation %d",
					j, e.Type(), e.ID(), e.Generation())}
		}
	}

	return nil
}
