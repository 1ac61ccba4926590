package record

import (
	"github.com/otseven/OT7-sub000/internal/skein"
)

// DefaultFillSizeBound is used when a key definition and the command line
// both leave FillSizeBound unset.
const DefaultFillSizeBound = 256

// fillSizeDomainTag domain-separates FillSize derivation from header
// derivation and from KeyIDHash/AddressMask derivation, even though all
// three may draw on overlapping OTP material in principle.
const fillSizeDomainTag = "OT7-FILLSIZE"

// fillSizeWidth returns the fixed encoded width of a derived FillSize:
// the byte width of the largest value the bound admits. Using a
// bound-fixed width rather than re-minimizing per draw lets the codec
// compute the full allocation size before reading any OTP byte (spec.md
// §4.4 step 2, §4.5's ExtraKeyUsed).
func fillSizeWidth(bound uint64) int {
	if bound <= 1 {
		return 1
	}
	w := byteWidth(bound - 1)
	if w == 0 {
		w = 1
	}
	return w
}

// deriveFillSize computes FillSize from the raw "extra" OTP bytes read
// immediately before KeyAddress, the password, and the configured bound
// (spec.md §4.4 step 2). extra must be fillSizeWidth(bound) bytes long.
func deriveFillSize(extra []byte, password string, bound uint64) uint64 {
	digest := skein.Sum1024(64, extra, []byte(password), []byte(fillSizeDomainTag))
	val := getUintLE(digest[:8])
	if bound == 0 {
		bound = DefaultFillSizeBound
	}
	return val % bound
}
