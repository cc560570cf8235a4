package ffff

import (
	"fmt"
	"os"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// ReadRomimage parses raw flash image bytes, locating the two
// redundant header copies the way a bootloader ROM does. The search
// accepts an image in a mid-update state: the second copy may be
// stale or missing, and a corrupted first copy is recovered from the
// backup.
//
// The returned image holds its own copy of data. An error is
// returned, never a partial image, when no valid header exists.
//
// Example:
//
//	data, _ := os.ReadFile("firmware.ffff")
//	image, err := ffff.ReadRomimage(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h, _ := image.Header(0)
//	fmt.Println(h.Name())
func ReadRomimage(data []byte) (*Romimage, error) {
	if len(data) < 2*HeaderSizeMin {
		return nil, &ValidationError{Kind: KindImageTooSmall, Element: -1,
			Detail: fmt.Sprintf("%d bytes cannot hold two %d byte headers", len(data), HeaderSizeMin)}
	}

	r := &Romimage{
		blob:         make([]byte, len(data)),
		headerOffset: [2]int{-1, -1},
	}
	copy(r.blob, data)

	if err := r.locateHeaders(); err != nil {
		r.Free()
		return nil, err
	}

	h0, _ := r.Header(0)
	r.eraseBlockSize = h0.EraseBlockSize()
	return r, nil
}

// ReadFile reads and parses the image stored at path.
func ReadFile(path string) (*Romimage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	r, err := ReadRomimage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// locateHeaders finds the valid header copies in the blob.
//
// A valid header at offset 0 anchors the image; the second copy is
// then searched for at the first erase-block boundary past the
// header, with the candidate offset doubling each step, and the first
// offset that validates wins. When offset 0 does not validate the
// same doubling scan runs from HeaderSizeMin looking for any
// surviving copy to anchor the image instead. Either way the scan
// terminates at the end of the blob and reports not-found.
func (r *Romimage) locateHeaders() error {
	err0 := r.validateAt(0)
	if err0 == nil {
		r.headerOffset[0] = 0

		h0, _ := r.Header(0)
		start := flashutil.NextBoundary(h0.HeaderSize(), h0.EraseBlockSize())
		for off := int(start); off > 0 && off < len(r.blob); off *= 2 {
			if r.validateAt(off) == nil {
				r.headerOffset[1] = off
				break
			}
		}
		// A missing second copy is the degraded mid-update state,
		// not a failure.
		return nil
	}

	for off := HeaderSizeMin; off < len(r.blob); off *= 2 {
		if r.validateAt(off) == nil {
			r.headerOffset[0] = off
			return nil
		}
	}

	return fmt.Errorf("no valid FFFF header found (header at offset 0: %w)", err0)
}

// validateAt runs the full header validator against a candidate
// header at blob offset off.
func (r *Romimage) validateAt(off int) error {
	size := r.headerSizeAt(off)
	if size == 0 {
		return &ValidationError{Kind: KindHeaderSize, Element: -1,
			Detail: fmt.Sprintf("no plausible header at offset 0x%X", off)}
	}
	return ValidateHeader(newHeader(r.blob[off:off+int(size)], uint32(off)))
}
