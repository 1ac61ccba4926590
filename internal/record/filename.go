package record

import "github.com/otseven/OT7-sub000/internal/resultcode"

// maxFileNameBytes is the largest value FileNameSize (a 2-byte LE field)
// can hold.
const maxFileNameBytes = 0xFFFF

// encodeFileName validates and returns the bytes to embed for name, or
// nil if the filename field should be omitted (spec.md §3, §8 invariant
// 5). FileName bytes must be printable ASCII with no NUL, per §6's wire
// layout comment.
func encodeFileName(name string, include bool) ([]byte, error) {
	if !include || name == "" {
		return nil, nil
	}
	b := []byte(name)
	if len(b) > maxFileNameBytes {
		return nil, resultcode.Wrapf(resultcode.InvalidFileName, "file name %q is too long to encode", name)
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return nil, resultcode.Wrapf(resultcode.InvalidFileName, "file name %q contains a non-printable byte", name)
		}
	}
	return b, nil
}
