// Package ffff builds, parses and validates FFFF (Flash Format For
// Firmware) romimages: the flash container a bootloader ROM trusts to
// locate boot firmware on an embedded processor.
//
// # FFFF On-Flash Layout
//
// An image carries two redundant header copies, so that a power cut
// during an in-place update always leaves one intact copy. The first
// copy lives at flash offset 0; the second at the first erase-block
// boundary at or after header_size. Everything past the reserved
// header region is payload space addressed by the element table.
//
// Each header copy is header_size bytes, little-endian throughout:
//
//	offset        size  field
//	0             16    sentinel "FlashFormatForFW"
//	16            16    build_timestamp ("YYYYMMDD HHMMSS", UTC)
//	32            48    flash_image_name
//	80            4     flash_capacity
//	84            4     erase_block_size
//	88            4     header_size
//	92            4     flash_image_length
//	96            4     header_generation
//	100           16    reserved (must be zero)
//	116           ...   element descriptor table
//	hdr_size-16   16    trailing sentinel "FlashFormatForFW"
//
// Each element descriptor is 20 bytes: a u32 word carrying the type
// (low byte) and class, then id, length, location and generation. The
// table ends at the first entry of type 0xFE.
//
// # Building an Image
//
// Declare elements in an ElementCache, then let a Builder commit the
// layout:
//
//	cache := ffff.NewElementCache()
//	_ = cache.Open(ffff.ElementData, "payload.bin")
//	_ = cache.SetID(1)
//	_ = cache.SetLocation(0x2000)
//	cache.Close()
//
//	image, err := ffff.NewBuilder().Build(cache, ffff.ImageSpec{
//	    Name:           "demo image",
//	    FlashCapacity:  0x100000,
//	    EraseBlockSize: 0x1000,
//	    HeaderSize:     0x1000,
//	    ImageLength:    0x100000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer image.Free()
//	_ = image.WriteFile("demo.ffff")
//
// # Reading an Image
//
// ReadRomimage accepts arbitrary bytes and locates whichever header
// copies survive, modelling the bootloader's own recovery search.
// A file whose first header is corrupt is recovered through the
// backup copy; a missing second copy is reported as a degraded image,
// not an error.
//
//	image, err := ffff.ReadFile("demo.ffff")
//
// # Validation Errors
//
// Every structural rule failure carries a distinct kind:
//
//	if err := ffff.ValidateHeader(h); err != nil {
//	    if ffff.IsKind(err, ffff.KindElementOverlap) {
//	        // two elements collide
//	    }
//	}
//
// See ValidationKind for the taxonomy: sentinels, size bounds,
// element alignment, bounds, overlap, duplicate identity, missing end
// marker and non-zero table padding all fail distinctly.
package ffff
