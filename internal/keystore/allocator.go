package keystore

import "github.com/otseven/OT7-sub000/internal/resultcode"

// Allocate finds the first region of the key file, starting from offset
// zero, that is at least length bytes long and disjoint from every range
// in used (spec.md §4.5: "the allocator scans forward from the start of
// the key file and grants the first gap in the consumption log at least as
// large as the request"). used must be sorted by Lo and non-overlapping.
func Allocate(used []Range, fileSize, length uint64) (Range, error) {
	cursor := uint64(0)
	for _, r := range used {
		if r.Lo > cursor && r.Lo-cursor >= length {
			return Range{Lo: cursor, Hi: cursor + length}, nil
		}
		if r.Hi > cursor {
			cursor = r.Hi
		}
	}
	if fileSize > cursor && fileSize-cursor >= length {
		return Range{Lo: cursor, Hi: cursor + length}, nil
	}
	return Range{}, resultcode.Wrapf(resultcode.RanOutOfKey, "no unused region of %d bytes remains in key file", length)
}
