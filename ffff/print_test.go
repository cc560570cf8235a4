package ffff

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootrom-tools/go-ffff/tftf"
)

func TestPrintImage(t *testing.T) {
	path := writePayload(t, "data.bin", 0x100)
	cache := NewElementCache()
	require.NoError(t, cache.Open(ElementData, path))
	require.NoError(t, cache.SetID(1))
	require.NoError(t, cache.SetLocation(0x2000))
	cache.Close()

	image, err := NewBuilder().Build(cache, testSpec)
	require.NoError(t, err)
	defer image.Free()

	var buf bytes.Buffer
	require.NoError(t, image.Print(&buf, PrintOptions{Title: "demo"}))
	out := buf.String()

	assert.Contains(t, out, "demo:")
	assert.Contains(t, out, "Header 0 at 0x00000000")
	assert.Contains(t, out, "Header 1 at 0x00001000")
	assert.Contains(t, out, "flash image name:   test image")
	assert.Contains(t, out, "flash capacity:     0x00100000")
	assert.Contains(t, out, "[0] data class 0x00 id 0x00000001 length 0x00000100 location 0x00002000")
	assert.Contains(t, out, "Headers are in sync")

	// 0x100 bytes is 16 rows: elided by default.
	assert.Contains(t, out, "elided")

	buf.Reset()
	require.NoError(t, image.Print(&buf, PrintOptions{ShowAll: true}))
	assert.NotContains(t, buf.String(), "elided")
	// Last payload row is present when showing everything.
	assert.Contains(t, buf.String(), "000020F0:")
}

func TestHexDumpElidedByteCount(t *testing.T) {
	// 100 bytes is seven rows, the last one partial: head rows cover
	// [0x00, 0x40), the tail row starts at 0x60, so exactly 32 bytes
	// are skipped.
	var buf bytes.Buffer
	hexDump(&buf, "", 0, make([]byte, 100), true)
	out := buf.String()

	assert.Contains(t, out, "... (32 bytes elided)")
	assert.Contains(t, out, "00000060:", "partial final row is shown")
	assert.NotContains(t, out, "00000040:")
	assert.NotContains(t, out, "00000050:")
}

func TestPrintNestedTFTF(t *testing.T) {
	// A payload that opens with the TFTF sentinel gets described as a
	// nested package instead of hex dumped.
	payload := make([]byte, tftf.FixedHeaderSize)
	copy(payload, tftf.Sentinel)
	copy(payload[8:], "20250102 030405")
	copy(payload[24:], "nested firmware")

	path := filepath.Join(t.TempDir(), "inner.bin")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	cache := NewElementCache()
	require.NoError(t, cache.Open(ElementStage2FW, path))
	require.NoError(t, cache.SetID(1))
	require.NoError(t, cache.SetLocation(0x2000))
	cache.Close()

	image, err := NewBuilder().Build(cache, testSpec)
	require.NoError(t, err)
	defer image.Free()

	var buf bytes.Buffer
	require.NoError(t, image.Print(&buf, PrintOptions{}))
	out := buf.String()

	assert.Contains(t, out, "TFTF package")
	assert.Contains(t, out, "nested firmware")
	assert.Contains(t, out, "20250102 030405")
	assert.NotContains(t, out, "00002000:", "sniffed payloads are not hex dumped")
}

func TestPrintDegraded(t *testing.T) {
	data := builtImageBytes(t)
	for i := 0x1000; i < 0x2000; i++ {
		data[i] = 0
	}

	image, err := ReadRomimage(data)
	require.NoError(t, err)
	defer image.Free()

	var buf bytes.Buffer
	require.NoError(t, image.Print(&buf, PrintOptions{}))
	assert.Contains(t, buf.String(), "Header 1: not present")
	assert.Contains(t, buf.String(), "Headers are NOT in sync")
}

func TestPrintReleased(t *testing.T) {
	image, err := NewBuilder().Build(NewElementCache(), testSpec)
	require.NoError(t, err)
	image.Free()
	image.Free() // idempotent

	var buf bytes.Buffer
	assert.Error(t, image.Print(&buf, PrintOptions{}))
	assert.Equal(t, 0, strings.Count(buf.String(), "Header"))
}
