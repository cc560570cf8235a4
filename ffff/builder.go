package ffff

import (
	"errors"
	"fmt"
	"os"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// ImageSpec declares the fixed header fields of an image about to be
// built from an element cache.
type ImageSpec struct {
	// Name is the flash image name, truncated to NameSize bytes
	Name string

	// FlashCapacity is the size of the target flash part in bytes
	FlashCapacity uint32

	// EraseBlockSize is the erase granularity; a power of two no
	// larger than EraseBlockSizeMax
	EraseBlockSize uint32

	// HeaderSize is the size of each header copy, within
	// [HeaderSizeMin, HeaderSizeMax]
	HeaderSize uint32

	// ImageLength is the total image length; at most FlashCapacity
	ImageLength uint32

	// Generation is the header generation counter
	Generation uint32
}

// Builder materializes romimages from element caches.
type Builder struct {
	config Config
}

// NewBuilder creates a Builder with the given options.
//
// Example:
//
//	b := ffff.NewBuilder(ffff.WithLogger(myLogger))
//	image, err := b.Build(cache, spec)
func NewBuilder(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{config: cfg}
}

// Build turns the cached elements into a complete romimage with two
// identical header copies. The cache's declared locations and lengths
// are authoritative; payload files are loaded into the blob at the
// declared locations.
//
// Build fails without returning a partial image if the spec is
// inconsistent, any element fails the location rules, any payload
// does not fit, or any payload file cannot be read. Per-element
// failures are collected across the whole cache before the build is
// abandoned, so one invocation reports everything wrong.
func (b *Builder) Build(cache *ElementCache, spec ImageSpec) (*Romimage, error) {
	if err := b.checkSpec(cache, spec); err != nil {
		return nil, err
	}
	if err := cache.ValidateLocations(spec.HeaderSize, spec.EraseBlockSize, spec.ImageLength); err != nil {
		return nil, err
	}

	r, err := NewRomimage(spec.ImageLength, spec.HeaderSize, spec.EraseBlockSize)
	if err != nil {
		return nil, err
	}

	h0, _ := r.Header(0)
	b.populateHeader(h0, spec)

	if err := b.placeElements(r, h0, cache, spec); err != nil {
		r.Free()
		return nil, err
	}

	// Construction guarantees redundancy by copy: header 1 is a
	// verbatim clone of the fully populated header 0, never an
	// independent build.
	b.cloneHeader(r)

	if err := ValidateHeader(h0); err != nil {
		r.Free()
		return nil, fmt.Errorf("built image failed validation: %w", err)
	}

	b.logInfo("image built",
		"name", spec.Name,
		"elements", cache.Count(),
		"length", fmt.Sprintf("0x%X", spec.ImageLength),
	)
	return r, nil
}

// checkSpec rejects inconsistent header fields before anything is
// allocated, using the same failure kinds the validator reports.
func (b *Builder) checkSpec(cache *ElementCache, spec ImageSpec) error {
	if !flashutil.IsPowerOfTwo(spec.EraseBlockSize) || spec.EraseBlockSize > EraseBlockSizeMax {
		return &ValidationError{Kind: KindEraseBlockSize, Element: -1,
			Detail: fmt.Sprintf("0x%X", spec.EraseBlockSize)}
	}
	if spec.HeaderSize < HeaderSizeMin || spec.HeaderSize > HeaderSizeMax {
		return &ValidationError{Kind: KindHeaderSize, Element: -1,
			Detail: fmt.Sprintf("0x%X", spec.HeaderSize)}
	}
	if spec.FlashCapacity < 2*spec.EraseBlockSize {
		return &ValidationError{Kind: KindFlashCapacity, Element: -1,
			Detail: fmt.Sprintf("0x%X", spec.FlashCapacity)}
	}
	if spec.ImageLength > spec.FlashCapacity {
		return &ValidationError{Kind: KindImageLength, Element: -1,
			Detail: fmt.Sprintf("0x%X exceeds capacity 0x%X", spec.ImageLength, spec.FlashCapacity)}
	}

	// The end-of-table marker needs a slot of its own.
	if cache.Count()+1 > MaxElements(spec.HeaderSize) {
		return &CacheFullError{Capacity: MaxElements(spec.HeaderSize) - 1}
	}

	if cache.TotalPayloadSize() > uint64(spec.ImageLength) {
		return &ValidationError{Kind: KindElementBounds, Element: -1,
			Detail: fmt.Sprintf("total payload 0x%X exceeds image length 0x%X",
				cache.TotalPayloadSize(), spec.ImageLength)}
	}
	return nil
}

// populateHeader fills the fixed fields of header 0 and seeds the
// element table with a lone end-of-table marker.
func (b *Builder) populateHeader(h *Header, spec ImageSpec) {
	h.writeSentinels()
	if b.config.BuildTime.IsZero() {
		h.SetTimestampNow()
	} else {
		h.SetTimestamp(b.config.BuildTime)
	}
	h.SetName(spec.Name)
	h.SetFlashCapacity(spec.FlashCapacity)
	h.SetEraseBlockSize(spec.EraseBlockSize)
	h.SetHeaderSize(spec.HeaderSize)
	h.SetFlashImageLength(spec.ImageLength)
	h.SetGeneration(spec.Generation)
	h.Element(0).markEnd()
}

// placeElements drives the cache iterator once: each entry's
// descriptor goes into the next table slot and its payload bytes are
// loaded into the blob at the declared location. Failures are
// collected rather than short-circuiting, so every bad entry in the
// cache is reported in one pass.
func (b *Builder) placeElements(r *Romimage, h *Header, cache *ElementCache, spec ImageSpec) error {
	var errs []error

	slot := 0
	it := cache.Iterate()
	for entry, ok := it.Next(); ok; entry, ok = it.Next() {
		if uint64(entry.Location)+uint64(entry.Length) > uint64(spec.ImageLength) {
			errs = append(errs, &FitError{
				Type:        entry.Type,
				ID:          entry.ID,
				Location:    entry.Location,
				Length:      entry.Length,
				ImageLength: spec.ImageLength,
			})
			continue
		}

		if err := b.loadPayload(r, entry); err != nil {
			errs = append(errs, err)
			continue
		}

		e := h.Element(slot)
		e.SetType(entry.Type)
		e.SetClass(entry.Class)
		e.SetID(entry.ID)
		e.SetLength(entry.Length)
		e.SetLocation(entry.Location)
		e.SetGeneration(entry.Generation)

		b.logDebug("placed element",
			"type", entry.Type.String(),
			"id", fmt.Sprintf("0x%08X", entry.ID),
			"location", fmt.Sprintf("0x%08X", entry.Location),
			"length", fmt.Sprintf("0x%X", entry.Length),
		)

		slot++
		h.Element(slot).markEnd()
	}

	return errors.Join(errs...)
}

// loadPayload copies an entry's payload bytes into the blob at the
// declared location. The declared length wins when it disagrees with
// the source size: a longer declaration leaves the excess zero-filled
// and a shorter one truncates the copy.
func (b *Builder) loadPayload(r *Romimage, entry *CacheEntry) error {
	data := entry.Data
	if data == nil && entry.Filename != "" {
		var err error
		data, err = os.ReadFile(entry.Filename)
		if err != nil {
			return fmt.Errorf("cannot load element payload: %w", err)
		}
	}
	if len(data) > int(entry.Length) {
		data = data[:entry.Length]
	}
	copy(r.blob[entry.Location:], data)
	return nil
}

// cloneHeader copies the populated header 0 bytes verbatim into the
// header 1 slot.
func (b *Builder) cloneHeader(r *Romimage) {
	h0, ok0 := r.Header(0)
	if !ok0 || r.headerOffset[1] < 0 {
		return
	}
	copy(r.blob[r.headerOffset[1]:], h0.Bytes())
}

func (b *Builder) logDebug(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (b *Builder) logInfo(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Info(msg, keysAndValues...)
	}
}
