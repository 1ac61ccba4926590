package skein

import "encoding/binary"

// UBI block type codes, Skein v1.3 Table 6.
const (
	typeCfg = 4
	typeMsg = 48
	typeOut = 63
)

// buildTweak constructs the 128-bit Skein tweak value for a UBI block:
// T0 holds the cumulative byte position, T1 packs the final flag (bit 63),
// first flag (bit 62) and the 6-bit block type (bits 56-61).
func buildTweak(bytePos uint64, first, final bool, typ uint64) [2]uint64 {
	t1 := typ << 56
	if first {
		t1 |= 1 << 62
	}
	if final {
		t1 |= 1 << 63
	}
	return [2]uint64{bytePos, t1}
}

// bytesToWords unpacks up to BlockBytes little-endian bytes into the 16
// Threefish-1024 state words, zero-padding any bytes beyond len(b).
func bytesToWords(b []byte, w *[blockWords]uint64) {
	*w = [blockWords]uint64{}
	for i := 0; i < blockWords; i++ {
		lo := i * 8
		if lo >= len(b) {
			break
		}
		hi := lo + 8
		if hi > len(b) {
			var tmp [8]byte
			copy(tmp[:], b[lo:])
			w[i] = binary.LittleEndian.Uint64(tmp[:])
			break
		}
		w[i] = binary.LittleEndian.Uint64(b[lo:hi])
	}
}

func wordsToBytes(w [blockWords]uint64) []byte {
	out := make([]byte, BlockBytes)
	for i := 0; i < blockWords; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], w[i])
	}
	return out
}

// outputBlock computes one 128-byte chunk of Skein's counter-mode output
// expansion: Threefish keyed by the post-message chaining value g,
// encrypting a block holding only the little-endian counter, fed forward
// by XOR with the plaintext (Davies-Meyer), per spec.md §4.1.
func outputBlock(g [blockWords]uint64, counter uint64) [blockWords]uint64 {
	var words [blockWords]uint64
	words[0] = counter
	tweak := buildTweak(8, true, true, typeOut)
	enc := threefish1024Encrypt(words, g, tweak)
	for i := range enc {
		enc[i] ^= words[i]
	}
	return enc
}
