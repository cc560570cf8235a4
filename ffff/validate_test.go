package ffff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoElementHeader builds a valid image with two payload-less
// elements and returns header 0 for mutation. Element 0 occupies
// [0x2000, 0x3000), element 1 [0x3000, 0x3100).
func twoElementHeader(t *testing.T) *Header {
	t.Helper()

	cache := NewElementCache()
	require.NoError(t, cache.Open(ElementData, ""))
	require.NoError(t, cache.SetID(1))
	require.NoError(t, cache.SetLocation(0x2000))
	require.NoError(t, cache.SetLength(0x1000))
	require.NoError(t, cache.Open(ElementStage2FW, ""))
	require.NoError(t, cache.SetID(2))
	require.NoError(t, cache.SetLocation(0x3000))
	require.NoError(t, cache.SetLength(0x100))
	cache.Close()

	image, err := NewBuilder().Build(cache, testSpec)
	require.NoError(t, err)
	t.Cleanup(image.Free)

	h, ok := image.Header(0)
	require.True(t, ok)
	require.NoError(t, ValidateHeader(h))
	return h
}

func requireKind(t *testing.T, err error, kind ValidationKind) {
	t.Helper()
	require.Error(t, err)
	ve, ok := AsValidationError(err)
	require.True(t, ok, "expected a ValidationError, got %v", err)
	assert.Equal(t, kind, ve.Kind, "got %v", err)
}

func TestValidateSentinelFlips(t *testing.T) {
	// Flipping any single byte of either sentinel must fail with the
	// sentinel kind, all other fields held valid.
	for _, region := range []struct {
		name  string
		start int
	}{
		{"leading", 0},
		{"trailing", 0x1000 - SentinelSize},
	} {
		for i := 0; i < SentinelSize; i++ {
			h := twoElementHeader(t)
			h.b[region.start+i] ^= 0x01
			err := ValidateHeader(h)
			requireKind(t, err, KindBadSentinel)
		}
	}
}

func TestValidateEraseBlockSize(t *testing.T) {
	h := twoElementHeader(t)
	h.SetEraseBlockSize(0x1001)
	requireKind(t, ValidateHeader(h), KindEraseBlockSize)

	h = twoElementHeader(t)
	h.SetEraseBlockSize(EraseBlockSizeMax * 2)
	requireKind(t, ValidateHeader(h), KindEraseBlockSize)
}

func TestValidateFlashCapacity(t *testing.T) {
	h := twoElementHeader(t)
	h.SetFlashCapacity(h.EraseBlockSize()*2 - 1)
	requireKind(t, ValidateHeader(h), KindFlashCapacity)
}

func TestValidateImageLength(t *testing.T) {
	h := twoElementHeader(t)
	h.SetFlashImageLength(h.FlashCapacity() + 1)
	requireKind(t, ValidateHeader(h), KindImageLength)
}

func TestValidateHeaderSizeField(t *testing.T) {
	h := twoElementHeader(t)
	h.SetHeaderSize(HeaderSizeMax * 2)
	requireKind(t, ValidateHeader(h), KindHeaderSize)

	// In range but disagreeing with the region it was read from.
	h = twoElementHeader(t)
	h.SetHeaderSize(0x800)
	requireKind(t, ValidateHeader(h), KindHeaderSize)
}

func TestValidateReservedWords(t *testing.T) {
	h := twoElementHeader(t)
	h.b[offReserved+5] = 0xAA
	requireKind(t, ValidateHeader(h), KindReservedNotZero)
}

func TestValidateElementType(t *testing.T) {
	h := twoElementHeader(t)
	h.Element(0).SetType(0x77)
	requireKind(t, ValidateHeader(h), KindElementType)
}

func TestValidateElementAlignment(t *testing.T) {
	h := twoElementHeader(t)
	h.Element(1).SetLocation(0x3004)
	requireKind(t, ValidateHeader(h), KindElementAlignment)

	// A location that is a multiple of the erase block passes.
	h = twoElementHeader(t)
	h.Element(1).SetLocation(0x4000)
	assert.NoError(t, ValidateHeader(h))
}

func TestValidateElementReservedRegion(t *testing.T) {
	// Block-aligned and in bounds, but inside the region reserved for
	// the header copies: still rejected, with the reserved kind.
	h := twoElementHeader(t)
	h.Element(1).SetLocation(0)
	requireKind(t, ValidateHeader(h), KindElementReserved)
}

func TestValidateElementBounds(t *testing.T) {
	h := twoElementHeader(t)
	h.Element(1).SetLocation(0xFF000)
	h.Element(1).SetLength(0x1001)
	requireKind(t, ValidateHeader(h), KindElementBounds)

	// Exactly reaching the image length is fine.
	h = twoElementHeader(t)
	h.Element(1).SetLocation(0xFF000)
	h.Element(1).SetLength(0x1000)
	assert.NoError(t, ValidateHeader(h))
}

func TestValidateElementOverlap(t *testing.T) {
	// Element 0 covers [0x2000, 0x3000); moving element 1 inside it
	// must fail against the earlier element.
	h := twoElementHeader(t)
	h.Element(0).SetLength(0x2000) // now covers [0x2000, 0x4000)
	err := ValidateHeader(h)
	requireKind(t, err, KindElementOverlap)
	ve, _ := AsValidationError(err)
	assert.Equal(t, 0, ve.Element)

	// Adjacent ranges (end == next location) do not overlap.
	h = twoElementHeader(t)
	require.Equal(t, uint32(0x3000), h.Element(0).Location()+h.Element(0).Length())
	assert.NoError(t, ValidateHeader(h))
}

func TestValidateElementDuplicate(t *testing.T) {
	// Identical (type, id, generation) with disjoint ranges is still
	// a contract violation.
	h := twoElementHeader(t)
	e0, e1 := h.Element(0), h.Element(1)
	e1.SetType(e0.Type())
	e1.SetID(e0.ID())
	e1.SetGeneration(e0.Generation())
	requireKind(t, ValidateHeader(h), KindElementDuplicate)
}

func TestValidateNoEndMarker(t *testing.T) {
	h := twoElementHeader(t)
	// Fill every table slot with a distinct valid element.
	max := h.MaxElements()
	for i := 0; i < max; i++ {
		e := h.Element(i)
		e.SetType(ElementData)
		e.SetClass(0)
		e.SetID(uint32(i))
		e.SetLength(0x10)
		e.SetLocation(uint32(0x2000 + i*0x1000))
		e.SetGeneration(0)
	}
	requireKind(t, ValidateHeader(h), KindNoEndMarker)
}

func TestValidatePadding(t *testing.T) {
	// Any non-zero byte strictly between the end-of-table entry and
	// the trailing sentinel invalidates the header.
	h := twoElementHeader(t)
	n, found := h.ElementCount()
	require.True(t, found)
	firstPad := offElements + (n+1)*ElementDescriptorSize
	h.b[firstPad] = 0x01
	requireKind(t, ValidateHeader(h), KindPaddingNotZero)

	h = twoElementHeader(t)
	h.b[len(h.b)-SentinelSize-1] = 0x01
	requireKind(t, ValidateHeader(h), KindPaddingNotZero)
}
