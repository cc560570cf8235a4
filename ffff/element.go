package ffff

import (
	"encoding/binary"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// Element is a bounds-checked view of one 20-byte element descriptor
// inside a header's element table. The zero value is not usable;
// obtain Elements from Header.Element.
type Element struct {
	b []byte
}

// Descriptor field offsets within an element table entry. The first
// u32 word carries the type in its low byte and the class in the next
// byte; the upper two bytes are reserved and written as zero.
const (
	elemOffType       = 0
	elemOffClass      = 1
	elemOffID         = 4
	elemOffLength     = 8
	elemOffLocation   = 12
	elemOffGeneration = 16
)

// Type returns the element's type code.
func (e Element) Type() ElementType {
	return ElementType(e.b[elemOffType])
}

// SetType sets the element's type code.
func (e Element) SetType(t ElementType) {
	e.b[elemOffType] = byte(t)
}

// Class returns the element's class.
func (e Element) Class() byte {
	return e.b[elemOffClass]
}

// SetClass sets the element's class.
func (e Element) SetClass(c byte) {
	e.b[elemOffClass] = c
}

// ID returns the element's id.
func (e Element) ID() uint32 {
	return binary.LittleEndian.Uint32(e.b[elemOffID:])
}

// SetID sets the element's id.
func (e Element) SetID(v uint32) {
	binary.LittleEndian.PutUint32(e.b[elemOffID:], v)
}

// Length returns the element's payload length in bytes.
func (e Element) Length() uint32 {
	return binary.LittleEndian.Uint32(e.b[elemOffLength:])
}

// SetLength sets the element's payload length.
func (e Element) SetLength(v uint32) {
	binary.LittleEndian.PutUint32(e.b[elemOffLength:], v)
}

// Location returns the element's absolute flash offset.
func (e Element) Location() uint32 {
	return binary.LittleEndian.Uint32(e.b[elemOffLocation:])
}

// SetLocation sets the element's absolute flash offset.
func (e Element) SetLocation(v uint32) {
	binary.LittleEndian.PutUint32(e.b[elemOffLocation:], v)
}

// Generation returns the element's update generation counter.
func (e Element) Generation() uint32 {
	return binary.LittleEndian.Uint32(e.b[elemOffGeneration:])
}

// SetGeneration sets the element's generation counter.
func (e Element) SetGeneration(v uint32) {
	binary.LittleEndian.PutUint32(e.b[elemOffGeneration:], v)
}

// IsEnd reports whether this entry is the end-of-table marker.
func (e Element) IsEnd() bool {
	return e.Type() == ElementEnd
}

// markEnd turns the entry into a zeroed end-of-table marker.
func (e Element) markEnd() {
	for i := range e.b {
		e.b[i] = 0
	}
	e.SetType(ElementEnd)
}

// Overlaps reports whether this element's byte range intersects
// other's range, treating both as half-open intervals.
func (e Element) Overlaps(other Element) bool {
	return flashutil.Overlap(e.Location(), e.Length(), other.Location(), other.Length())
}

// SameIdentity reports whether this element and other share the same
// (type, id, generation) triple. The on-flash contract forbids two
// table entries with the same identity.
func (e Element) SameIdentity(other Element) bool {
	return e.Type() == other.Type() &&
		e.ID() == other.ID() &&
		e.Generation() == other.Generation()
}

// bytesEqual reports whether the two descriptors are byte-identical.
func (e Element) bytesEqual(other Element) bool {
	for i := range e.b {
		if e.b[i] != other.b[i] {
			return false
		}
	}
	return true
}
