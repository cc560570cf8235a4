package ffff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePayload creates a payload file of n bytes with a recognizable
// pattern and returns its path.
func writePayload(t *testing.T, name string, n int) string {
	t.Helper()
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCacheLifecycle(t *testing.T) {
	cache := NewElementCache()

	// Mutating with nothing open is a distinct, reportable failure.
	err := cache.SetID(1)
	var noOpen *NoOpenElementError
	require.ErrorAs(t, err, &noOpen)
	assert.Equal(t, "id", noOpen.Op)

	// Close before anything is open is a tolerated no-op.
	cache.Close()
	cache.Close()

	require.NoError(t, cache.Open(ElementData, ""))
	require.NoError(t, cache.SetClass(0x12))
	require.NoError(t, cache.SetID(7))
	require.NoError(t, cache.SetLength(0x100))
	require.NoError(t, cache.SetLocation(0x2000))
	require.NoError(t, cache.SetGeneration(3))
	assert.Equal(t, 1, cache.Count())

	cache.Close()
	cache.Close() // idempotent

	// Frozen entries are no longer mutable.
	err = cache.SetLocation(0x3000)
	require.ErrorAs(t, err, &noOpen)
	assert.Equal(t, "location", noOpen.Op)

	// Back-to-back opens close the previous entry implicitly.
	require.NoError(t, cache.Open(ElementStage2FW, ""))
	require.NoError(t, cache.Open(ElementStage3FW, ""))
	assert.Equal(t, 3, cache.Count())

	entry, ok := cache.Iterate().Next()
	require.True(t, ok)
	assert.Equal(t, ElementData, entry.Type)
	assert.Equal(t, byte(0x12), entry.Class)
	assert.Equal(t, uint32(7), entry.ID)
	assert.Equal(t, uint32(0x100), entry.Length)
	assert.Equal(t, uint32(0x2000), entry.Location)
	assert.Equal(t, uint32(3), entry.Generation)
}

func TestCacheOpenFromFile(t *testing.T) {
	path := writePayload(t, "payload.bin", 0x180)

	cache := NewElementCache()
	require.NoError(t, cache.Open(ElementData, path))
	cache.Close()

	entry, ok := cache.Iterate().Next()
	require.True(t, ok)
	assert.Equal(t, uint32(0x180), entry.Length, "length comes from the file size")
	assert.Equal(t, path, entry.Filename)
}

func TestCacheOpenMissingFile(t *testing.T) {
	cache := NewElementCache()
	err := cache.Open(ElementData, filepath.Join(t.TempDir(), "no-such-file.bin"))
	require.Error(t, err)
	assert.Equal(t, 0, cache.Count())
}

func TestCacheOpenIntelHex(t *testing.T) {
	// Four data bytes at address 0, then EOF.
	hex := ":0400000001020304F2\n:00000001FF\n"
	path := filepath.Join(t.TempDir(), "payload.hex")
	require.NoError(t, os.WriteFile(path, []byte(hex), 0o644))

	cache := NewElementCache()
	require.NoError(t, cache.Open(ElementData, path))

	entry, ok := cache.Iterate().Next()
	require.True(t, ok)
	assert.Equal(t, uint32(4), entry.Length)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, entry.Data)
}

func TestCacheFull(t *testing.T) {
	cache := NewElementCache()
	cache.capacity = 3
	for i := 0; i < 3; i++ {
		require.NoError(t, cache.Open(ElementData, ""))
		require.NoError(t, cache.SetID(uint32(i)))
	}

	err := cache.Open(ElementData, "")
	var full *CacheFullError
	require.ErrorAs(t, err, &full)
	assert.Equal(t, 3, full.Capacity)

	// The failed open must not corrupt the recorded entries.
	assert.Equal(t, 3, cache.Count())
	it := cache.Iterate()
	for i := 0; i < 3; i++ {
		entry, ok := it.Next()
		require.True(t, ok)
		assert.Equal(t, uint32(i), entry.ID)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	assert.Equal(t, MaxElements(HeaderSizeMax)-1, NewElementCache().capacity)
}

func TestCacheTotalPayloadSize(t *testing.T) {
	cache := NewElementCache()
	assert.Equal(t, uint64(0), cache.TotalPayloadSize())

	require.NoError(t, cache.Open(ElementData, ""))
	require.NoError(t, cache.SetLength(0x100))
	require.NoError(t, cache.Open(ElementData, ""))
	require.NoError(t, cache.SetLength(0x250))
	cache.Close()

	assert.Equal(t, uint64(0x350), cache.TotalPayloadSize())
}

func TestCacheValidateLocations(t *testing.T) {
	const (
		headerSize  = 0x1000
		eraseBlock  = 0x1000
		imageLength = 0x100000
	)

	add := func(cache *ElementCache, id, location, length uint32) {
		require.NoError(t, cache.Open(ElementData, ""))
		require.NoError(t, cache.SetID(id))
		require.NoError(t, cache.SetLocation(location))
		require.NoError(t, cache.SetLength(length))
	}

	t.Run("all valid", func(t *testing.T) {
		cache := NewElementCache()
		add(cache, 1, 0x2000, 0x100)
		add(cache, 2, 0xFF000, 0x1000)
		assert.NoError(t, cache.ValidateLocations(headerSize, eraseBlock, imageLength))
	})

	t.Run("every offender reported", func(t *testing.T) {
		cache := NewElementCache()
		add(cache, 1, 0x2004, 0x100)   // misaligned
		add(cache, 2, 0x1000, 0x100)   // inside two-header region
		add(cache, 3, 0xFF000, 0x2000) // runs past image length
		add(cache, 4, 0x8000, 0x100)   // fine

		err := cache.ValidateLocations(headerSize, eraseBlock, imageLength)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindElementAlignment))
		assert.True(t, IsKind(err, KindElementReserved))
		assert.True(t, IsKind(err, KindElementBounds))
	})

	t.Run("reserved region scales with header size", func(t *testing.T) {
		// header_size 0x200 rounds up to one erase block, so the two
		// header copies reserve [0, 0x2000).
		cache := NewElementCache()
		add(cache, 1, 0x1000, 0x100)
		err := cache.ValidateLocations(0x200, eraseBlock, imageLength)
		assert.True(t, IsKind(err, KindElementReserved))
	})
}

func TestCacheIterateTwice(t *testing.T) {
	cache := NewElementCache()
	for i := 0; i < 4; i++ {
		require.NoError(t, cache.Open(ElementData, ""))
		require.NoError(t, cache.SetID(uint32(i)))
		require.NoError(t, cache.SetLength(0x10))
	}
	cache.Close()

	// First pass: pure size accumulation.
	var total uint64
	it := cache.Iterate()
	for entry, ok := it.Next(); ok; entry, ok = it.Next() {
		total += uint64(entry.Length)
	}
	assert.Equal(t, uint64(0x40), total)

	// Second pass must see the same entries in the same order.
	it = cache.Iterate()
	for i := 0; i < 4; i++ {
		entry, ok := it.Next()
		require.True(t, ok)
		assert.Equal(t, uint32(i), entry.ID)
	}
	_, ok := it.Next()
	assert.False(t, ok)
}
