package ffff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRomimageLocatesHeaders(t *testing.T) {
	r, err := NewRomimage(0x100000, 0x1000, 0x1000)
	require.NoError(t, err)
	defer r.Free()

	// Both header views must be usable straight after allocation, with
	// nothing but the header_size stamp written yet.
	h0, ok := r.Header(0)
	require.True(t, ok)
	assert.Equal(t, uint32(0x1000), h0.HeaderSize())

	h1, ok := r.Header(1)
	require.True(t, ok)
	assert.Equal(t, uint32(0x1000), h1.HeaderSize())
	assert.Equal(t, uint32(0x1000), h1.FlashAddress())
}

func TestNewRomimageZeroHeaderSize(t *testing.T) {
	// Reading mode: layout unknown until a header is discovered.
	r, err := NewRomimage(0x100000, 0, 0x1000)
	require.NoError(t, err)
	defer r.Free()

	_, ok := r.Header(0)
	assert.False(t, ok)
	_, ok = r.Header(1)
	assert.False(t, ok)
}

func TestNewRomimageRejectsBadGeometry(t *testing.T) {
	_, err := NewRomimage(0, 0x1000, 0x1000)
	assert.Error(t, err)

	_, err = NewRomimage(0x100000, 0x100, 0x1000)
	assert.Error(t, err, "header size below minimum")

	_, err = NewRomimage(0x1800, 0x1000, 0x1000)
	assert.Error(t, err, "image too short for two header copies")
}

func TestFreeIdempotent(t *testing.T) {
	r, err := NewRomimage(0x100000, 0x1000, 0x1000)
	require.NoError(t, err)

	r.Free()
	r.Free()
	assert.Nil(t, r.Blob())
	_, ok := r.Header(0)
	assert.False(t, ok)

	var nilImage *Romimage
	nilImage.Free()
}
