package format

import "fmt"

// Compressed tagged values start with an identifier byte. The upper nibble
// selects the scheme: 0x1 is the 7-bit packing used for text whose bytes all
// fall below 0x80, 0x18 as a full byte announces XPRESS block compression.
const (
	compressionSchemeMask   = 0xF0
	compressionScheme7Bit   = 0x10
	compressionSchemeXpress = 0x18
)

// Decompress expands a compressed tagged value. XPRESS-compressed values are
// reported as unsupported so the caller can surface the raw bytes instead of
// silently dropping evidence.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("compressed value: %w", ErrTruncated)
	}
	if data[0] == compressionSchemeXpress {
		return nil, fmt.Errorf("xpress: %w", ErrUnsupportedCompression)
	}
	if data[0]&compressionSchemeMask != compressionScheme7Bit {
		return nil, fmt.Errorf("compression scheme %#x: %w", data[0], ErrUnsupportedCompression)
	}
	return decompress7Bit(data[1:]), nil
}

// decompress7Bit unpacks a stream of 7-bit units stored least significant bit
// first. The uncompressed size is implied by the stream length.
func decompress7Bit(data []byte) []byte {
	out := make([]byte, 0, (len(data)*8)/7)
	var acc uint16
	var bits uint
	for _, b := range data {
		acc |= uint16(b) << bits
		bits += 8
		for bits >= 7 {
			out = append(out, byte(acc&0x7F))
			acc >>= 7
			bits -= 7
		}
	}
	return out
}

// Compress7Bit packs bytes below 0x80 into the 7-bit scheme, prefixed with
// the identifier byte. It exists for the benefit of round-trip tests; the
// reader never writes databases. Returns false if any byte cannot be packed.
func Compress7Bit(data []byte) ([]byte, bool) {
	out := make([]byte, 1, 1+len(data))
	out[0] = compressionScheme7Bit
	var acc uint16
	var bits uint
	for _, b := range data {
		if b >= 0x80 {
			return nil, false
		}
		acc |= uint16(b) << bits
		bits += 7
		for bits >= 8 {
			out = append(out, byte(acc&0xFF))
			acc >>= 8
			bits -= 8
		}
	}
	if bits > 0 {
		out = append(out, byte(acc))
	}
	return out, true
}
