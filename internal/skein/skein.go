// Package skein implements the Skein1024 hash function (Skein v1.3,
// 1024-bit internal state) and the pseudo-random byte stream derived from
// it that OT7 uses as a KDF, MAC, and keystream generator.
//
// Hash satisfies hash.Hash, the same shape as the standard library's
// crypto/sha256: New1024 configures the output length (init), Write
// absorbs message bytes (update), Sum finalizes without mutating the
// running hash (final).
package skein

import "encoding/binary"

// Hash computes a Skein1024 digest of a configurable output length.
// It is not safe for concurrent use.
type Hash struct {
	g0 [blockWords]uint64 // chaining value after the CFG block, fixed for the life of the Hash

	g          [blockWords]uint64 // running chaining value over absorbed message bytes
	buf        [BlockBytes]byte
	bufLen     int
	bytePos    uint64
	firstBlock bool

	outputBits int
}

// New1024 returns a Skein1024 hash configured to produce outputBits bits
// of output from Sum. outputBits must be a positive multiple of 8.
func New1024(outputBits int) *Hash {
	h := &Hash{outputBits: outputBits}
	h.g0 = configChain(outputBits)
	h.Reset()
	return h
}

// configChain processes the Skein configuration block (Skein v1.3 §4.1)
// against an all-zero initial chaining value, fixing the output length
// into the hash state before any message bytes are absorbed.
func configChain(outputBits int) [blockWords]uint64 {
	const schemaID = 0x33414853 // ASCII "SHA3", little-endian, per the Skein v1.3 config schema
	const schemaVersion = 1

	cfg := make([]byte, 32)
	binary.LittleEndian.PutUint32(cfg[0:4], schemaID)
	binary.LittleEndian.PutUint16(cfg[4:6], schemaVersion)
	binary.LittleEndian.PutUint64(cfg[8:16], uint64(outputBits))
	// bytes 16:32 (tree-info, reserved) stay zero: sequential, non-tree hashing.

	var words [blockWords]uint64
	bytesToWords(cfg, &words)

	var zeroKey [blockWords]uint64
	tweak := buildTweak(uint64(len(cfg)), true, true, typeCfg)
	enc := threefish1024Encrypt(words, zeroKey, tweak)

	var g [blockWords]uint64
	for i := range g {
		g[i] = enc[i] ^ words[i]
	}
	return g
}

// Reset restores the Hash to its state immediately after construction,
// discarding any absorbed message bytes.
func (h *Hash) Reset() {
	h.g = h.g0
	h.bufLen = 0
	h.bytePos = 0
	h.firstBlock = true
}

// Size returns the number of bytes Sum will append, per the outputBits
// given to New1024.
func (h *Hash) Size() int { return (h.outputBits + 7) / 8 }

// BlockSize returns the Skein1024/Threefish-1024 block size.
func (h *Hash) BlockSize() int { return BlockBytes }

// Write absorbs message bytes into the running hash. It never fails.
func (h *Hash) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		if h.bufLen == BlockBytes {
			h.absorbBlock(h.buf[:], false)
			h.bufLen = 0
		}
		n := copy(h.buf[h.bufLen:], p)
		h.bufLen += n
		p = p[n:]
	}
	return total, nil
}

// absorbBlock runs one UBI/MSG step: Threefish-1024 keyed by the running
// chaining value, fed forward by XOR with the plaintext block
// (Davies-Meyer), per spec.md §4.1.
func (h *Hash) absorbBlock(block []byte, final bool) {
	var words [blockWords]uint64
	bytesToWords(block, &words)
	h.bytePos += uint64(len(block))
	tweak := buildTweak(h.bytePos, h.firstBlock, final, typeMsg)
	enc := threefish1024Encrypt(words, h.g, tweak)
	for i := range h.g {
		h.g[i] = enc[i] ^ words[i]
	}
	h.firstBlock = false
}

// finalState computes the chaining value after absorbing the buffered
// final block, without mutating h, so Sum can be called more than once
// and Write can resume afterward — matching the hash.Hash contract.
func (h *Hash) finalState() [blockWords]uint64 {
	g := h.g
	var words [blockWords]uint64
	bytesToWords(h.buf[:h.bufLen], &words)
	bytePos := h.bytePos + uint64(h.bufLen)
	tweak := buildTweak(bytePos, h.firstBlock, true, typeMsg)
	enc := threefish1024Encrypt(words, g, tweak)
	for i := range g {
		g[i] = enc[i] ^ words[i]
	}
	return g
}

// Sum appends the digest to b and returns the result. It does not reset
// the Hash's internal state.
func (h *Hash) Sum(b []byte) []byte {
	g := h.finalState()
	return append(b, expandOutput(g, h.Size())...)
}

// expandOutput runs the Skein output transform (Skein v1.3 §4.3): repeated
// independent UBI/OUT calls against the fixed chaining value g, one per
// 128-byte chunk, with an incrementing counter in place of a message.
func expandOutput(g [blockWords]uint64, n int) []byte {
	out := make([]byte, 0, n+BlockBytes)
	for counter := uint64(0); len(out) < n; counter++ {
		blk := outputBlock(g, counter)
		out = append(out, wordsToBytes(blk)...)
	}
	return out[:n]
}

// Sum1024 is a convenience wrapper equivalent to:
//
//	h := New1024(outputBits)
//	h.Write(msg)
//	return h.Sum(nil)
func Sum1024(outputBits int, msg ...[]byte) []byte {
	h := New1024(outputBits)
	for _, m := range msg {
		h.Write(m)
	}
	return h.Sum(nil)
}
