package tftf

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/bootrom-tools/go-ffff/flashutil"
)

// Sentinel is the 4-byte magic opening every TFTF package.
const Sentinel = "TFTF"

// Fixed header layout.
const (
	offSentinel      = 0
	offHeaderSize    = 4
	offTimestamp     = 8
	offName          = 24
	offPackageType   = 72
	offStartLocation = 76
	offUniproMfrID   = 80
	offUniproProdID  = 84
	offAraVendorID   = 88
	offAraProductID  = 92

	// TimestampSize and NameSize match the FFFF header's fields
	TimestampSize = 16
	NameSize      = 48

	// FixedHeaderSize is the size of the fixed header fields before
	// the section table
	FixedHeaderSize = 96
)

// Sniff reports whether b plausibly starts a TFTF package, by peeking
// at the sentinel only. A true result does not imply the package is
// well formed.
func Sniff(b []byte) bool {
	return len(b) >= len(Sentinel) && string(b[:len(Sentinel)]) == Sentinel
}

// Describe renders the fixed header fields of the TFTF package in b
// as indented human-readable text. Truncated packages are described
// as far as the bytes allow.
func Describe(b []byte, indent string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%sTFTF package:\n", indent)
	if !Sniff(b) {
		fmt.Fprintf(&sb, "%s  (no TFTF sentinel)\n", indent)
		return sb.String()
	}
	if len(b) < FixedHeaderSize {
		fmt.Fprintf(&sb, "%s  (truncated: %d of %d header bytes)\n", indent, len(b), FixedHeaderSize)
		return sb.String()
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }

	fmt.Fprintf(&sb, "%s  header size:    0x%08X\n", indent, u32(offHeaderSize))
	fmt.Fprintf(&sb, "%s  timestamp:      %s\n", indent,
		flashutil.FixedString(b[offTimestamp:offTimestamp+TimestampSize]))
	fmt.Fprintf(&sb, "%s  package name:   %s\n", indent,
		flashutil.FixedString(b[offName:offName+NameSize]))
	fmt.Fprintf(&sb, "%s  package type:   0x%08X\n", indent, u32(offPackageType))
	fmt.Fprintf(&sb, "%s  start location: 0x%08X\n", indent, u32(offStartLocation))
	fmt.Fprintf(&sb, "%s  unipro mfr/prod: 0x%08X / 0x%08X\n", indent,
		u32(offUniproMfrID), u32(offUniproProdID))
	fmt.Fprintf(&sb, "%s  ara vid/pid:    0x%08X / 0x%08X\n", indent,
		u32(offAraVendorID), u32(offAraProductID))
	return sb.String()
}

// WriteMap emits "name offset" lines for the fixed header fields of a
// TFTF package located at flash offset base. prefix is prepended to
// every field name, dotted.
func WriteMap(w io.Writer, prefix string, base uint32) error {
	fields := []struct {
		name string
		off  uint32
	}{
		{"sentinel", offSentinel},
		{"header_size", offHeaderSize},
		{"timestamp", offTimestamp},
		{"firmware_package_name", offName},
		{"package_type", offPackageType},
		{"start_location", offStartLocation},
		{"unipro_mfr_id", offUniproMfrID},
		{"unipro_product_id", offUniproProdID},
		{"ara_vendor_id", offAraVendorID},
		{"ara_product_id", offAraProductID},
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%s.%s  %08x\n", prefix, f.name, base+f.off); err != nil {
			return err
		}
	}
	return nil
}
