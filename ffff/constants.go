package ffff

// Sentinel is the 16-byte magic string that opens and closes every
// FFFF header. A bootloader ROM recognizes a header copy by finding
// this value at the start of the header and again at
// header_size - SentinelSize.
const Sentinel = "FlashFormatForFW"

// Fixed field sizes.
const (
	// SentinelSize is the length of the leading and trailing sentinels
	SentinelSize = 16

	// TimestampSize is the length of the build timestamp field
	TimestampSize = 16

	// NameSize is the length of the flash image name field
	NameSize = 48

	// TimestampFormat is the layout of the build timestamp
	// ("YYYYMMDD HHMMSS", always UTC)
	TimestampFormat = "20060102 150405"
)

// Header size and erase block limits.
const (
	// HeaderSizeMin is the smallest legal header_size value
	HeaderSizeMin = 512

	// HeaderSizeMax is the largest legal header_size value
	HeaderSizeMax = 32768

	// EraseBlockSizeMax is the largest legal erase_block_size value
	EraseBlockSizeMax = 1 << 20
)

// Byte offsets of the fixed header fields. All multi-byte fields are
// little-endian.
const (
	offSentinel         = 0
	offTimestamp        = 16
	offName             = 32
	offFlashCapacity    = 80
	offEraseBlockSize   = 84
	offHeaderSize       = 88
	offFlashImageLength = 92
	offGeneration       = 96
	offReserved         = 100

	// reservedWords is the number of reserved u32 words after the
	// generation field; they must read back zero
	reservedWords = 4

	// offElements is where the element descriptor table begins
	offElements = 116
)

// ElementDescriptorSize is the size of one element table entry:
// a u32 word holding type and class, then id, length, location and
// generation as u32 each.
const ElementDescriptorSize = 20

// ElementType identifies what an element's payload contains.
type ElementType byte

// Element types defined by the on-flash format.
const (
	// ElementStage2FW is second-stage boot firmware
	ElementStage2FW ElementType = 0x01

	// ElementStage3FW is third-stage boot firmware
	ElementStage3FW ElementType = 0x02

	// ElementIMSCert is an IMS certificate
	ElementIMSCert ElementType = 0x03

	// ElementCMSCert is a CMS certificate
	ElementCMSCert ElementType = 0x04

	// ElementData is generic data
	ElementData ElementType = 0x05

	// ElementEnd terminates the element table
	ElementEnd ElementType = 0xFE
)

// Valid reports whether t is one of the defined element types,
// including the end-of-table marker.
func (t ElementType) Valid() bool {
	switch t {
	case ElementStage2FW, ElementStage3FW, ElementIMSCert, ElementCMSCert,
		ElementData, ElementEnd:
		return true
	}
	return false
}

func (t ElementType) String() string {
	switch t {
	case ElementStage2FW:
		return "stage 2 firmware"
	case ElementStage3FW:
		return "stage 3 firmware"
	case ElementIMSCert:
		return "IMS certificate"
	case ElementCMSCert:
		return "CMS certificate"
	case ElementData:
		return "data"
	case ElementEnd:
		return "end of elements"
	}
	return "unknown element type"
}

// MaxElements returns how many element descriptor slots fit in the
// table of a header of the given size. One slot is always consumed by
// the end-of-table marker, so a valid header describes at most
// MaxElements-1 real elements.
func MaxElements(headerSize uint32) int {
	if headerSize < offElements+SentinelSize {
		return 0
	}
	return int((headerSize - offElements - SentinelSize) / ElementDescriptorSize)
}
