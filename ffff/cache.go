package ffff

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// CacheEntry is one element recorded in an ElementCache: the
// descriptor fields being assembled plus the source of its payload.
type CacheEntry struct {
	// Filename is the payload source, empty when the payload is
	// declared by length only
	Filename string

	// Data holds pre-flattened payload bytes for sources that are not
	// plain binary files (Intel HEX); nil otherwise
	Data []byte

	Type       ElementType
	Class      byte
	ID         uint32
	Length     uint32
	Location   uint32
	Generation uint32
}

// ElementCache accumulates element declarations while an image build
// is being described, before any layout is committed. Entries go
// through an open/mutate/close window: Open starts an entry, the Set
// methods mutate it, and the next Open (or Close) freezes it.
//
// The cache is not safe for concurrent use; it is meant to be
// populated fully and then consumed once by Builder.Build.
type ElementCache struct {
	entries []CacheEntry

	// capacity is the most real elements any header could ever
	// describe: the table slots of the largest legal header, less the
	// slot the end-of-table marker occupies.
	capacity int

	open bool
}

// NewElementCache returns an empty cache.
func NewElementCache() *ElementCache {
	return &ElementCache{capacity: MaxElements(HeaderSizeMax) - 1}
}

// Open starts a new element of the given type. Any element still
// under construction is closed first, so back-to-back declarations
// never need an explicit Close.
//
// filename names the payload source; the element length is taken from
// the file size. Files ending in .hex are parsed as Intel HEX and
// flattened to their binary image, with gaps filled with 0xFF (the
// erased-flash value). An empty filename records a payload-less
// element whose length must be supplied with SetLength.
func (c *ElementCache) Open(t ElementType, filename string) error {
	c.Close()

	if len(c.entries) >= c.capacity {
		return &CacheFullError{Capacity: c.capacity}
	}

	entry := CacheEntry{Filename: filename, Type: t}
	if filename != "" {
		if strings.EqualFold(filepath.Ext(filename), ".hex") {
			data, err := flattenIntelHex(filename)
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			entry.Data = data
			entry.Length = uint32(len(data))
		} else {
			info, err := os.Stat(filename)
			if err != nil {
				return fmt.Errorf("cannot size element payload: %w", err)
			}
			entry.Length = uint32(info.Size())
		}
	}

	c.entries = append(c.entries, entry)
	c.open = true
	return nil
}

// Close freezes the element under construction. Calling Close with no
// open element is a no-op, so it is always safe to call.
func (c *ElementCache) Close() {
	c.open = false
}

func (c *ElementCache) current(op string) (*CacheEntry, error) {
	if !c.open || len(c.entries) == 0 {
		return nil, &NoOpenElementError{Op: op}
	}
	return &c.entries[len(c.entries)-1], nil
}

// SetClass sets the class of the open element.
func (c *ElementCache) SetClass(v byte) error {
	e, err := c.current("class")
	if err != nil {
		return err
	}
	e.Class = v
	return nil
}

// SetID sets the id of the open element.
func (c *ElementCache) SetID(v uint32) error {
	e, err := c.current("id")
	if err != nil {
		return err
	}
	e.ID = v
	return nil
}

// SetLength sets the length of the open element, overriding any
// length derived from the payload file. The declared length is
// authoritative: it is what gets validated and written to the table,
// even when it disagrees with the file size.
func (c *ElementCache) SetLength(v uint32) error {
	e, err := c.current("length")
	if err != nil {
		return err
	}
	e.Length = v
	return nil
}

// SetLocation sets the absolute flash offset of the open element.
func (c *ElementCache) SetLocation(v uint32) error {
	e, err := c.current("location")
	if err != nil {
		return err
	}
	e.Location = v
	return nil
}

// SetGeneration sets the generation of the open element.
func (c *ElementCache) SetGeneration(v uint32) error {
	e, err := c.current("generation")
	if err != nil {
		return err
	}
	e.Generation = v
	return nil
}

// Count returns the number of elements recorded so far, open or
// frozen.
func (c *ElementCache) Count() int {
	return len(c.entries)
}

// TotalPayloadSize returns the sum of all recorded element lengths,
// used for capacity pre-checks before committing a layout.
func (c *ElementCache) TotalPayloadSize() uint64 {
	var total uint64
	for i := range c.entries {
		total += uint64(c.entries[i].Length)
	}
	return total
}

// ValidateLocations checks every cached element against the layout a
// build would commit: locations must be erase-block aligned and must
// lie within [2 x next_boundary(headerSize, eraseBlockSize),
// imageLength). Every offending element is reported; the result is
// nil only when all elements pass.
func (c *ElementCache) ValidateLocations(headerSize, eraseBlockSize, imageLength uint32) error {
	reservedEnd := 2 * flashutil.NextBoundary(headerSize, eraseBlockSize)

	var errs []error
	for i := range c.entries {
		e := &c.entries[i]
		name := e.Filename
		if name == "" {
			name = fmt.Sprintf("%s (id 0x%08X)", e.Type, e.ID)
		}
		if !flashutil.IsAligned(e.Location, eraseBlockSize) {
			errs = append(errs, &ValidationError{
				Kind:    KindElementAlignment,
				Element: i,
				Detail: fmt.Sprintf("%s at 0x%08X is not a multiple of 0x%X",
					name, e.Location, eraseBlockSize),
			})
			continue
		}
		if e.Location < reservedEnd {
			errs = append(errs, &ValidationError{
				Kind:    KindElementReserved,
				Element: i,
				Detail: fmt.Sprintf("%s at 0x%08X is inside the header region ending at 0x%08X",
					name, e.Location, reservedEnd),
			})
			continue
		}
		if uint64(e.Location)+uint64(e.Length) > uint64(imageLength) {
			errs = append(errs, &ValidationError{
				Kind:    KindElementBounds,
				Element: i,
				Detail: fmt.Sprintf("%s at 0x%08X + 0x%X bytes runs past image length 0x%X",
					name, e.Location, e.Length, imageLength),
			})
		}
	}
	return errors.Join(errs...)
}

// CacheIterator walks the cache entries in insertion order. Iteration
// does not disturb the cache, so it can be driven any number of
// times: once to size an allocation, again to copy payloads.
type CacheIterator struct {
	cache *ElementCache
	next  int
}

// Iterate returns a fresh iterator positioned before the first entry.
func (c *ElementCache) Iterate() *CacheIterator {
	return &CacheIterator{cache: c}
}

// Next returns the next entry. ok is false once the entries are
// exhausted.
func (it *CacheIterator) Next() (entry *CacheEntry, ok bool) {
	if it.next >= len(it.cache.entries) {
		return nil, false
	}
	entry = &it.cache.entries[it.next]
	it.next++
	return entry, true
}

// flattenIntelHex parses an Intel HEX file and flattens its data
// segments into one contiguous byte image starting at the lowest
// segment address. Gaps between segments read as 0xFF.
func flattenIntelHex(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("invalid Intel HEX: %w", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("Intel HEX file has no data")
	}

	base := segments[0].Address
	var end uint64
	for _, seg := range segments {
		if seg.Address < base {
			base = seg.Address
		}
		segEnd := uint64(seg.Address) + uint64(len(seg.Data))
		if segEnd > end {
			end = segEnd
		}
	}

	out := make([]byte, end-uint64(base))
	for i := range out {
		out[i] = 0xFF
	}
	for _, seg := range segments {
		copy(out[seg.Address-base:], seg.Data)
	}
	return out, nil
}
