// Package tftf provides the narrow interface the FFFF romimage engine
// needs to a nested TFTF (Trusted Firmware Transfer Format) package:
// recognizing one by its sentinel and describing its fixed header.
//
// # TFTF Fixed Header
//
// A TFTF package opens with a fixed header, little-endian throughout:
//
//	offset  size  field
//	0       4     sentinel "TFTF"
//	4       4     header_size
//	8       16    build_timestamp ("YYYYMMDD HHMMSS")
//	24      48    firmware_package_name
//	72      4     package_type
//	76      4     start_location
//	80      4     unipro_mfr_id
//	84      4     unipro_product_id
//	88      4     ara_vendor_id
//	92      4     ara_product_id
//
// The section table that follows, and everything below it, is out of
// scope: consumers that need TFTF section semantics parse the payload
// themselves.
package tftf
