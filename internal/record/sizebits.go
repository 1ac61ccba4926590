package record

// byteWidth returns the minimum number of little-endian bytes needed to
// represent v: 0 for v == 0, otherwise 1..8 (spec.md §3's SizeBits field).
func byteWidth(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	return n
}

// packSizeBits builds the SizeBits byte: low nibble = TextSize width,
// high nibble = FillSize width (spec.md §4.4 step 3).
func packSizeBits(textBytes, fillBytes int) byte {
	return byte((fillBytes&0x0F)<<4 | (textBytes & 0x0F))
}

// unpackSizeBits splits a SizeBits byte back into field widths.
func unpackSizeBits(b byte) (textBytes, fillBytes int) {
	return int(b & 0x0F), int(b>>4) & 0x0F
}

// putUintLE encodes v into exactly width little-endian bytes.
func putUintLE(v uint64, width int) []byte {
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	return buf
}

// getUintLE decodes a little-endian unsigned integer of arbitrary width
// (0..8 bytes).
func getUintLE(buf []byte) uint64 {
	var v uint64
	for i, b := range buf {
		v |= uint64(b) << (8 * uint(i))
	}
	return v
}
