// Package keystream implements the OT7 Keystream Mixer: the per-byte XOR
// of a true-random one-time-pad byte and a password-derived pseudo-random
// byte, applied to encrypt or (symmetrically) decrypt body bytes.
package keystream

import (
	"io"

	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/otseven/OT7-sub000/internal/skein"
)

// Mixer reads one-time-pad bytes from a bounded region of a key file and
// XORs each against a byte from a password PRF to produce the keystream.
// Encryption and decryption are the same operation: callers always pass
// whichever of plaintext/ciphertext they have.
type Mixer struct {
	otp   io.Reader
	prf   *skein.PRF
	used  int
	limit int
}

// New builds a Mixer over otp, an io.Reader already positioned at the
// start of the granted OTP region, bounded to limit bytes — the exact
// length the Record Codec allocated for this record (spec.md §4.2).
func New(otp io.Reader, prf *skein.PRF, limit int) *Mixer {
	return &Mixer{otp: otp, prf: prf, limit: limit}
}

// Used returns the number of OTP bytes consumed so far.
func (m *Mixer) Used() int { return m.used }

// XORByte mixes a single byte.
func (m *Mixer) XORByte(b byte) (byte, error) {
	if m.used >= m.limit {
		return 0, resultcode.Wrap(resultcode.RanOutOfKeyInOneTimePad,
			"keystream mixer exhausted its granted one-time pad region")
	}

	var otpByte [1]byte
	if _, err := io.ReadFull(m.otp, otpByte[:]); err != nil {
		return 0, resultcode.Wrapf(resultcode.RanOutOfKey, "reading one-time pad byte: %v", err)
	}
	m.used++

	return b ^ otpByte[0] ^ m.prf.NextByte(), nil
}

// XOR mixes every byte of p in place and returns it.
func (m *Mixer) XOR(p []byte) ([]byte, error) {
	for i, b := range p {
		mixed, err := m.XORByte(b)
		if err != nil {
			return nil, err
		}
		p[i] = mixed
	}
	return p, nil
}
