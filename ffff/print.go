package ffff

import (
	"fmt"
	"io"

	"github.com/bootrom-tools/go-ffff/tftf"
)

// PrintOptions controls the human-readable dump.
type PrintOptions struct {
	// ShowAll disables the elision applied to long payload hex dumps
	ShowAll bool

	// Title is printed above the dump when non-empty
	Title string
}

// Hex dump bounds when PrintOptions.ShowAll is unset: the first
// headLines and last tailLines rows of 16 bytes are shown.
const (
	dumpHeadLines = 4
	dumpTailLines = 1
	dumpRowBytes  = 16
)

// Print renders the image for humans: every located header copy field
// by field, each element descriptor, and each element payload either
// as a nested TFTF summary (when the payload carries the TFTF
// sentinel) or as a bounded hex dump.
func (r *Romimage) Print(w io.Writer, opts PrintOptions) error {
	if r == nil || r.blob == nil {
		return fmt.Errorf("cannot print released romimage")
	}
	if opts.Title != "" {
		if _, err := fmt.Fprintf(w, "%s:\n", opts.Title); err != nil {
			return err
		}
	}

	for i := 0; i < 2; i++ {
		h, ok := r.Header(i)
		if !ok {
			fmt.Fprintf(w, "Header %d: not present (mid-update image)\n", i)
			continue
		}
		if err := r.printHeader(w, i, h, opts); err != nil {
			return err
		}
	}

	switch {
	case r.InSync():
		fmt.Fprintln(w, "Headers are in sync")
	default:
		fmt.Fprintln(w, "Headers are NOT in sync")
	}
	return nil
}

func (r *Romimage) printHeader(w io.Writer, idx int, h *Header, opts PrintOptions) error {
	fmt.Fprintf(w, "Header %d at 0x%08X:\n", idx, h.FlashAddress())
	fmt.Fprintf(w, "  sentinel:           %q\n", string(h.b[:SentinelSize]))
	fmt.Fprintf(w, "  timestamp:          %s\n", h.Timestamp())
	fmt.Fprintf(w, "  flash image name:   %s\n", h.Name())
	fmt.Fprintf(w, "  flash capacity:     0x%08X\n", h.FlashCapacity())
	fmt.Fprintf(w, "  erase block size:   0x%08X\n", h.EraseBlockSize())
	fmt.Fprintf(w, "  header size:        0x%08X\n", h.HeaderSize())
	fmt.Fprintf(w, "  flash image length: 0x%08X\n", h.FlashImageLength())
	fmt.Fprintf(w, "  header generation:  %d\n", h.Generation())

	n, _ := h.ElementCount()
	if n == 0 {
		fmt.Fprintln(w, "  elements:           none")
		return nil
	}
	fmt.Fprintln(w, "  elements:")
	for i := 0; i < n; i++ {
		e := h.Element(i)
		fmt.Fprintf(w, "    [%d] %s class 0x%02X id 0x%08X length 0x%08X location 0x%08X generation %d\n",
			i, e.Type(), e.Class(), e.ID(), e.Length(), e.Location(), e.Generation())

		payload := r.ElementPayload(idx, i)
		if payload == nil {
			fmt.Fprintln(w, "        payload out of range")
			continue
		}
		if tftf.Sniff(payload) {
			if _, err := io.WriteString(w, tftf.Describe(payload, "        ")); err != nil {
				return err
			}
			continue
		}
		hexDump(w, "        ", e.Location(), payload, !opts.ShowAll)
	}
	return nil
}

// hexDump writes rows of 16 bytes with their flash offsets and an
// ASCII gutter. When elide is set and the payload is long, only the
// first and last rows are shown with the middle skipped.
func hexDump(w io.Writer, indent string, base uint32, b []byte, elide bool) {
	rows := (len(b) + dumpRowBytes - 1) / dumpRowBytes

	printRow := func(row int) {
		off := row * dumpRowBytes
		end := off + dumpRowBytes
		if end > len(b) {
			end = len(b)
		}
		fmt.Fprintf(w, "%s%08X:", indent, base+uint32(off))
		for i := off; i < end; i++ {
			fmt.Fprintf(w, " %02X", b[i])
		}
		for i := end; i < off+dumpRowBytes; i++ {
			fmt.Fprint(w, "   ")
		}
		fmt.Fprint(w, "  ")
		for i := off; i < end; i++ {
			if b[i] >= 32 && b[i] <= 126 {
				fmt.Fprintf(w, "%c", b[i])
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}

	if !elide || rows <= dumpHeadLines+dumpTailLines+1 {
		for row := 0; row < rows; row++ {
			printRow(row)
		}
		return
	}

	for row := 0; row < dumpHeadLines; row++ {
		printRow(row)
	}
	// The elided span runs from the end of the head rows to the start
	// of the first tail row; measuring offsets keeps the count exact
	// when the final row is partial.
	headEnd := dumpHeadLines * dumpRowBytes
	tailStart := (rows - dumpTailLines) * dumpRowBytes
	if tailStart > len(b) {
		tailStart = len(b)
	}
	fmt.Fprintf(w, "%s... (%d bytes elided)\n", indent, tailStart-headEnd)
	for row := rows - dumpTailLines; row < rows; row++ {
		printRow(row)
	}
}
