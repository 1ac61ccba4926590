// Package record implements the OT7 Record Codec (spec.md §4.4): the
// binary layout of an encrypted record, its header derivation, and the
// encode/decode state machines that drive the Keystream Mixer over the
// body fields in order.
package record

import (
	"encoding/binary"

	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/otseven/OT7-sub000/internal/skein"
)

// HeaderSize is the fixed on-wire header length (spec.md §6).
const HeaderSize = 24

// HeaderSeedSize is N, the header-derivation window: the number of raw
// OTP bytes read at KeyAddress and hashed with the password to produce
// HeaderKey (spec.md §3, §4.3). Fixed at 8 to match both §3's literal
// description and the "8 (header seed)" term in §4.4 step 4's region-size
// formula.
const HeaderSeedSize = 8

// Header is the 24-byte self-indexing OT7 record header (spec.md §3, §6).
type Header struct {
	HeaderKey     [8]byte
	KeyIDHash     [8]byte
	MaskedAddress [8]byte
}

// MarshalBinary encodes the header to its 24-byte wire form.
func (h Header) MarshalBinary() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], h.HeaderKey[:])
	copy(buf[8:16], h.KeyIDHash[:])
	copy(buf[16:24], h.MaskedAddress[:])
	return buf
}

// UnmarshalHeader decodes a 24-byte header.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, resultcode.Wrapf(resultcode.InvalidEncryptedFileFormat,
			"record is %d bytes, shorter than the %d-byte header", len(buf), HeaderSize)
	}
	var h Header
	copy(h.HeaderKey[:], buf[0:8])
	copy(h.KeyIDHash[:], buf[8:16])
	copy(h.MaskedAddress[:], buf[16:24])
	return h, nil
}

// DeriveHeaderKey computes HeaderKey = first 8 bytes of
// Skein1024-1024(headerSeed ‖ password) (spec.md §4.3 step 1).
func DeriveHeaderKey(headerSeed [HeaderSeedSize]byte, password string) [8]byte {
	digest := skein.Sum1024(1024, headerSeed[:], []byte(password))
	var hk [8]byte
	copy(hk[:], digest[:8])
	return hk
}

// DeriveIdentity computes KeyIDHash and AddressMask from HeaderKey, KeyID,
// and password (spec.md §4.3 step 2):
//
//	H = Skein1024-128(HeaderKey ‖ KeyID-as-LE64 ‖ password)
//	KeyIDHash = H[0:8]; AddressMask = H[8:16]
func DeriveIdentity(headerKey [8]byte, keyID uint64, password string) (keyIDHash, addressMask [8]byte) {
	var keyIDLE [8]byte
	binary.LittleEndian.PutUint64(keyIDLE[:], keyID)

	digest := skein.Sum1024(128, headerKey[:], keyIDLE[:], []byte(password))
	copy(keyIDHash[:], digest[0:8])
	copy(addressMask[:], digest[8:16])
	return
}

// MaskAddress XORs a little-endian KeyAddress with AddressMask (spec.md
// §4.3 step 3), producing the value stored on the wire.
func MaskAddress(addr uint64, mask [8]byte) [8]byte {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], addr)
	var out [8]byte
	for i := range out {
		out[i] = le[i] ^ mask[i]
	}
	return out
}

// UnmaskAddress recovers KeyAddress from its masked wire form, symmetric
// with MaskAddress.
func UnmaskAddress(masked, mask [8]byte) uint64 {
	var le [8]byte
	for i := range le {
		le[i] = masked[i] ^ mask[i]
	}
	return binary.LittleEndian.Uint64(le[:])
}

// PRFSeed builds the seed for the Keystream Mixer's password-layer
// pseudo-random stream: the header-seed bytes concatenated with the
// password (spec.md §2, "an unbounded pseudo-random sequence seeded by
// ... true-random OTP bytes ‖ password").
func PRFSeed(headerSeed [HeaderSeedSize]byte, password string) []byte {
	seed := make([]byte, 0, HeaderSeedSize+len(password))
	seed = append(seed, headerSeed[:]...)
	seed = append(seed, []byte(password)...)
	return seed
}

// fillBytesDomainTag domain-separates the TextFill fill-byte generator's
// stream from the Keystream Mixer's password layer, even though both draw
// on the same header-seed/password material. Without this, a single PRF
// instance would have to serve both consumers, and any draw against one
// would desynchronize the other's byte-for-byte cursor.
const fillBytesDomainTag = "OT7-FILLBYTES"

// FillPRFSeed builds the seed for the TextFill fill-byte generator's own
// pseudo-random stream, independent of the Keystream Mixer's PRF so that
// drawing fill bytes never perturbs the mixer's cursor (spec.md §4.4).
func FillPRFSeed(headerSeed [HeaderSeedSize]byte, password string) []byte {
	seed := PRFSeed(headerSeed, password)
	return append(seed, []byte(fillBytesDomainTag)...)
}
