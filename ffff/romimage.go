package ffff

import (
	"fmt"
	"os"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// Romimage owns the byte blob of one FFFF flash image: two redundant
// header copies followed by the payload region. A Romimage is
// single-owner, single-writer; it is mutated only while being built.
type Romimage struct {
	blob           []byte
	eraseBlockSize uint32

	// headerOffset holds the blob offsets of the two header copies.
	// An offset of -1 means that copy has not been located; a freshly
	// read image in a mid-update state may only have one.
	headerOffset [2]int
}

// NewRomimage allocates a zero-filled romimage of imageLength bytes.
// The first header copy lives at offset 0; when headerSize is
// non-zero the second copy is positioned at the first erase-block
// boundary at or after headerSize. A zero headerSize leaves the
// second copy unresolved, as when reading a file of unknown layout.
func NewRomimage(imageLength, headerSize, eraseBlockSize uint32) (*Romimage, error) {
	if imageLength == 0 {
		return nil, fmt.Errorf("image length must be non-zero")
	}
	if headerSize != 0 && (headerSize < HeaderSizeMin || headerSize > HeaderSizeMax) {
		return nil, fmt.Errorf("header size 0x%X out of range", headerSize)
	}
	r := &Romimage{
		blob:           make([]byte, imageLength),
		eraseBlockSize: eraseBlockSize,
		headerOffset:   [2]int{0, -1},
	}
	if headerSize != 0 {
		second := flashutil.NextBoundary(headerSize, eraseBlockSize)
		if uint64(second)+uint64(headerSize) > uint64(imageLength) {
			return nil, fmt.Errorf("image of 0x%X bytes cannot hold two 0x%X byte headers",
				imageLength, headerSize)
		}
		r.headerOffset[1] = int(second)

		// Header views locate a copy by reading its header_size field,
		// so both copies are stamped before anything else is written.
		newHeader(r.blob[:headerSize], 0).SetHeaderSize(headerSize)
		newHeader(r.blob[second:second+headerSize], second).SetHeaderSize(headerSize)
	}
	return r, nil
}

// Free releases the blob. It is a no-op on a nil or already-freed
// Romimage; any Header views obtained earlier are invalidated.
func (r *Romimage) Free() {
	if r == nil {
		return
	}
	r.blob = nil
	r.headerOffset = [2]int{-1, -1}
}

// Blob returns the raw image bytes.
func (r *Romimage) Blob() []byte {
	if r == nil {
		return nil
	}
	return r.blob
}

// Length returns the image length in bytes.
func (r *Romimage) Length() uint32 {
	return uint32(len(r.Blob()))
}

// EraseBlockSize returns the erase block granularity of the image.
func (r *Romimage) EraseBlockSize() uint32 {
	return r.eraseBlockSize
}

// Header returns a view of header copy i (0 or 1). ok is false when
// that copy has not been located or the blob cannot hold it.
func (r *Romimage) Header(i int) (h *Header, ok bool) {
	if r == nil || r.blob == nil || i < 0 || i > 1 {
		return nil, false
	}
	off := r.headerOffset[i]
	if off < 0 {
		return nil, false
	}
	size := r.headerSizeAt(off)
	if size == 0 {
		return nil, false
	}
	return newHeader(r.blob[off:off+int(size)], uint32(off)), true
}

// headerSizeAt reads the header_size field of a candidate header at
// blob offset off, returning 0 if no plausible header fits there.
func (r *Romimage) headerSizeAt(off int) uint32 {
	if off < 0 || off+HeaderSizeMin > len(r.blob) {
		return 0
	}
	h := newHeader(r.blob[off:off+HeaderSizeMin], uint32(off))
	size := h.HeaderSize()
	if size < HeaderSizeMin || size > HeaderSizeMax {
		return 0
	}
	if off+int(size) > len(r.blob) {
		return 0
	}
	return size
}

// InSync reports whether both header copies are present and
// byte-for-byte identical. A false result with both copies present
// is the recoverable mid-update state, not corruption.
func (r *Romimage) InSync() bool {
	h0, ok0 := r.Header(0)
	h1, ok1 := r.Header(1)
	if !ok0 || !ok1 {
		return false
	}
	return HeadersMatch(h0, h1)
}

// WriteFile serializes the image to path.
func (r *Romimage) WriteFile(path string) error {
	if r == nil || r.blob == nil {
		return fmt.Errorf("cannot write released romimage")
	}
	if err := os.WriteFile(path, r.blob, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// ElementPayload returns the bytes of the element at table index i of
// header copy hdr, or nil if that header or element does not exist or
// the element's range runs outside the blob.
func (r *Romimage) ElementPayload(hdr, i int) []byte {
	h, ok := r.Header(hdr)
	if !ok {
		return nil
	}
	n, _ := h.ElementCount()
	if i < 0 || i >= n {
		return nil
	}
	e := h.Element(i)
	start := uint64(e.Location())
	end := start + uint64(e.Length())
	if end > uint64(len(r.blob)) {
		return nil
	}
	return r.blob[start:end]
}
