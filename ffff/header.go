package ffff

import (
	"encoding/binary"
	"time"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// Header is a typed view of one FFFF header copy inside a romimage
// blob. All accessors read and write the underlying blob directly at
// validated offsets; no state is duplicated outside the blob.
type Header struct {
	b []byte

	// flashAddr is the flash offset this header copy was read from or
	// will be written to. The validator needs it to decide where the
	// reserved header region ends.
	flashAddr uint32
}

// newHeader wraps the header-sized region b located at flashAddr.
// b must be at least HeaderSizeMin bytes.
func newHeader(b []byte, flashAddr uint32) *Header {
	return &Header{b: b, flashAddr: flashAddr}
}

// Bytes returns the raw header bytes. The slice aliases the romimage
// blob; mutating it mutates the image.
func (h *Header) Bytes() []byte {
	return h.b
}

// FlashAddress returns the flash offset of this header copy.
func (h *Header) FlashAddress() uint32 {
	return h.flashAddr
}

func (h *Header) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(h.b[off:])
}

func (h *Header) putU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(h.b[off:], v)
}

// writeSentinels stamps the leading sentinel and the trailing sentinel
// at header_size - SentinelSize.
func (h *Header) writeSentinels() {
	copy(h.b[offSentinel:offSentinel+SentinelSize], Sentinel)
	copy(h.b[len(h.b)-SentinelSize:], Sentinel)
}

// sentinelsOK reports whether both sentinels byte-match the constant.
func (h *Header) sentinelsOK() bool {
	if string(h.b[offSentinel:offSentinel+SentinelSize]) != Sentinel {
		return false
	}
	return string(h.b[len(h.b)-SentinelSize:]) == Sentinel
}

// Timestamp returns the build timestamp string ("YYYYMMDD HHMMSS").
func (h *Header) Timestamp() string {
	return flashutil.FixedString(h.b[offTimestamp : offTimestamp+TimestampSize])
}

// SetTimestamp stamps t, rendered in UTC, into the timestamp field.
func (h *Header) SetTimestamp(t time.Time) {
	flashutil.PutFixedString(h.b[offTimestamp:offTimestamp+TimestampSize],
		t.UTC().Format(TimestampFormat))
}

// SetTimestampNow stamps the current UTC time into the timestamp field.
func (h *Header) SetTimestampNow() {
	h.SetTimestamp(time.Now())
}

// Name returns the flash image name.
func (h *Header) Name() string {
	return flashutil.FixedString(h.b[offName : offName+NameSize])
}

// SetName sets the flash image name, truncated to NameSize bytes.
func (h *Header) SetName(name string) {
	flashutil.PutFixedString(h.b[offName:offName+NameSize], name)
}

// FlashCapacity returns the declared size of the flash part in bytes.
func (h *Header) FlashCapacity() uint32 {
	return h.u32(offFlashCapacity)
}

// SetFlashCapacity sets the declared flash part size.
func (h *Header) SetFlashCapacity(v uint32) {
	h.putU32(offFlashCapacity, v)
}

// EraseBlockSize returns the flash erase block size in bytes.
func (h *Header) EraseBlockSize() uint32 {
	return h.u32(offEraseBlockSize)
}

// SetEraseBlockSize sets the flash erase block size.
func (h *Header) SetEraseBlockSize(v uint32) {
	h.putU32(offEraseBlockSize, v)
}

// HeaderSize returns the header_size field.
func (h *Header) HeaderSize() uint32 {
	return h.u32(offHeaderSize)
}

// SetHeaderSize sets the header_size field.
func (h *Header) SetHeaderSize(v uint32) {
	h.putU32(offHeaderSize, v)
}

// FlashImageLength returns the declared length of the whole image.
func (h *Header) FlashImageLength() uint32 {
	return h.u32(offFlashImageLength)
}

// SetFlashImageLength sets the declared image length.
func (h *Header) SetFlashImageLength(v uint32) {
	h.putU32(offFlashImageLength, v)
}

// Generation returns the header generation counter.
func (h *Header) Generation() uint32 {
	return h.u32(offGeneration)
}

// SetGeneration sets the header generation counter.
func (h *Header) SetGeneration(v uint32) {
	h.putU32(offGeneration, v)
}

// reservedZero reports whether every reserved word reads back zero.
func (h *Header) reservedZero() bool {
	return flashutil.IsFilledWith(h.b[offReserved:offReserved+4*reservedWords], 0)
}

// MaxElements returns the capacity of this header's element table.
func (h *Header) MaxElements() int {
	return MaxElements(uint32(len(h.b)))
}

// Element returns a view of table entry i. i must be within
// [0, MaxElements()).
func (h *Header) Element(i int) Element {
	off := offElements + i*ElementDescriptorSize
	return Element{b: h.b[off : off+ElementDescriptorSize]}
}

// ElementCount returns the number of entries before the end-of-table
// marker, and whether a marker was found within the table's capacity.
func (h *Header) ElementCount() (int, bool) {
	max := h.MaxElements()
	for i := 0; i < max; i++ {
		if h.Element(i).IsEnd() {
			return i, true
		}
	}
	return max, false
}

// Elements returns views of every entry before the end-of-table
// marker, in table order.
func (h *Header) Elements() []Element {
	n, _ := h.ElementCount()
	out := make([]Element, n)
	for i := range out {
		out[i] = h.Element(i)
	}
	return out
}

// paddingZero reports whether every byte strictly between the last
// table entry (the end marker, or the final slot if no marker exists)
// and the trailing sentinel is zero.
func (h *Header) paddingZero() bool {
	n, found := h.ElementCount()
	last := n
	if found {
		// Include the end marker entry itself in the table region.
		last = n + 1
	}
	from := offElements + last*ElementDescriptorSize
	to := len(h.b) - SentinelSize
	if from >= to {
		return true
	}
	return flashutil.IsFilledWith(h.b[from:to], 0)
}

// HeadersMatch reports whether a and b are byte-for-byte identical
// over their full header_size. Either being nil, or the sizes
// disagreeing, is a mismatch.
func HeadersMatch(a, b *Header) bool {
	if a == nil || b == nil || len(a.b) != len(b.b) {
		return false
	}
	for i := range a.b {
		if a.b[i] != b.b[i] {
			return false
		}
	}
	return true
}

// ElementTablesMatch compares the element tables of a and b entry by
// entry up to the end-of-table marker. It is true only if every
// compared descriptor is byte-identical and both tables terminate
// consistently.
func ElementTablesMatch(a, b *Header) bool {
	if a == nil || b == nil {
		return false
	}
	maxA, maxB := a.MaxElements(), b.MaxElements()
	max := maxA
	if maxB < max {
		max = maxB
	}
	for i := 0; i < max; i++ {
		ea, eb := a.Element(i), b.Element(i)
		if !ea.bytesEqual(eb) {
			return false
		}
		if ea.IsEnd() {
			return true
		}
	}
	// Ran off the shorter table without an end marker: only equal if
	// both tables are exhausted together.
	return maxA == maxB
}

// ElementCollisions returns the indices of every element in h, other
// than the one at target, whose byte range intersects the target
// element's range. At most max indices are returned; max <= 0 means
// no limit.
func ElementCollisions(h *Header, target int, max int) []int {
	var out []int
	tgt := h.Element(target)
	n, _ := h.ElementCount()
	for i := 0; i < n; i++ {
		if i == target {
			continue
		}
		if tgt.Overlaps(h.Element(i)) {
			out = append(out, i)
			if max > 0 && len(out) >= max {
				break
			}
		}
	}
	return out
}
