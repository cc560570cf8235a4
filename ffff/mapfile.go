package ffff

import (
	"fmt"
	"io"
	"os"

	"github.com/bootrom-tools/go-ffff/tftf"
)

// WriteMap emits the byte-offset map of the image: one "name offset"
// line per structurally meaningful field, for both header copies and,
// recursively, for any element payload that is itself a TFTF package.
// External tooling uses the map to locate exact byte positions
// without re-parsing the binary format.
func (r *Romimage) WriteMap(w io.Writer) error {
	if r == nil || r.blob == nil {
		return fmt.Errorf("cannot map released romimage")
	}

	for i := 0; i < 2; i++ {
		h, ok := r.Header(i)
		if !ok {
			continue
		}
		if err := r.writeHeaderMap(w, i, h); err != nil {
			return err
		}
	}
	return nil
}

// WriteMapFile writes the byte-offset map to path.
func (r *Romimage) WriteMapFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := r.WriteMap(f); err != nil {
		return err
	}
	return f.Close()
}

func (r *Romimage) writeHeaderMap(w io.Writer, idx int, h *Header) error {
	base := h.FlashAddress()
	prefix := fmt.Sprintf("ffff[%d]", idx)

	line := func(name string, off uint32) error {
		_, err := fmt.Fprintf(w, "%s.%s  %08x\n", prefix, name, off)
		return err
	}

	fields := []struct {
		name string
		off  uint32
	}{
		{"sentinel", base + offSentinel},
		{"timestamp", base + offTimestamp},
		{"flash_image_name", base + offName},
		{"flash_capacity", base + offFlashCapacity},
		{"erase_block_size", base + offEraseBlockSize},
		{"header_size", base + offHeaderSize},
		{"flash_image_length", base + offFlashImageLength},
		{"header_generation", base + offGeneration},
	}
	for _, f := range fields {
		if err := line(f.name, f.off); err != nil {
			return err
		}
	}
	for i := 0; i < reservedWords; i++ {
		if err := line(fmt.Sprintf("reserved[%d]", i), base+offReserved+uint32(4*i)); err != nil {
			return err
		}
	}

	n, found := h.ElementCount()
	for i := 0; i < n; i++ {
		e := h.Element(i)
		eBase := base + offElements + uint32(i*ElementDescriptorSize)
		for _, f := range []struct {
			name string
			off  uint32
		}{
			{"type", eBase + elemOffType},
			{"class", eBase + elemOffClass},
			{"id", eBase + elemOffID},
			{"length", eBase + elemOffLength},
			{"location", eBase + elemOffLocation},
			{"generation", eBase + elemOffGeneration},
		} {
			if err := line(fmt.Sprintf("element[%d].%s", i, f.name), f.off); err != nil {
				return err
			}
		}

		payload := r.ElementPayload(idx, i)
		if tftf.Sniff(payload) {
			tftfPrefix := fmt.Sprintf("%s.element[%d].tftf", prefix, i)
			if err := tftf.WriteMap(w, tftfPrefix, e.Location()); err != nil {
				return err
			}
		}
	}
	if found {
		endBase := base + offElements + uint32(n*ElementDescriptorSize)
		if err := line(fmt.Sprintf("element[%d].end_of_table", n), endBase); err != nil {
			return err
		}
	}

	return line("tail_sentinel", base+h.HeaderSize()-SentinelSize)
}
