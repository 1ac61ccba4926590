package keystore

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/otseven/OT7-sub000/internal/resultcode"
)

// Range is a half-open byte range [Lo, Hi) within a key file.
type Range struct {
	Lo, Hi uint64
}

// Len returns the number of bytes in the range.
func (r Range) Len() uint64 { return r.Hi - r.Lo }

// Overlaps reports whether r and o share any byte.
func (r Range) Overlaps(o Range) bool { return r.Lo < o.Hi && o.Lo < r.Hi }

// Log is the per-key-file consumption log (spec.md §4.5): an append-only,
// human-readable record of byte ranges already consumed, reconstructed in
// full on open. One line per committed range:
//
//	<key-file-identity-hex> <lo> <hi> <unix-nanosecond-timestamp>
type Log struct {
	path   string
	ranges map[FileIdentity][]Range
}

// OpenLog reads and reconstructs a consumption log, creating an empty one
// at path if it does not yet exist.
func OpenLog(path string) (*Log, error) {
	l := &Log{path: path, ranges: make(map[FileIdentity][]Range)}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenLogFile, "open consumption log %s: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, resultcode.Wrapf(resultcode.CantReadLogFile, "%s:%d: malformed consumption log line", path, lineNo)
		}

		id, err := ParseFileIdentity(fields[0])
		if err != nil {
			return nil, resultcode.Wrapf(resultcode.CantReadLogFile, "%s:%d: %v", path, lineNo, err)
		}
		lo, errLo := strconv.ParseUint(fields[1], 10, 64)
		hi, errHi := strconv.ParseUint(fields[2], 10, 64)
		if errLo != nil || errHi != nil || hi < lo {
			return nil, resultcode.Wrapf(resultcode.CantReadLogFile, "%s:%d: invalid range", path, lineNo)
		}

		l.ranges[id] = append(l.ranges[id], Range{Lo: lo, Hi: hi})
	}
	if err := scanner.Err(); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantReadLogFile, "read consumption log %s: %v", path, err)
	}

	for id := range l.ranges {
		sortRanges(l.ranges[id])
	}

	return l, nil
}

func sortRanges(ranges []Range) {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
}

// UsedRanges returns the ranges already consumed from the key file
// identified by id, sorted by Lo. Ranges are kept as committed: repeated
// or overlapping commits are not merged.
func (l *Log) UsedRanges(id FileIdentity) []Range {
	return l.ranges[id]
}

// Commit appends newly consumed ranges for id to the log file and records
// them in memory. An allocation that fails before Commit leaves the log
// unchanged, since nothing is written until the caller calls Commit
// (spec.md §4.5).
func (l *Log) Commit(id FileIdentity, ranges ...Range) error {
	if len(ranges) == 0 {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return resultcode.Wrapf(resultcode.CantWriteLogFile, "open consumption log %s: %v", l.path, err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return resultcode.Wrapf(resultcode.CantWriteLogFile, "lock consumption log %s: %v", l.path, err)
	}
	defer unlockFile(f)

	var sb strings.Builder
	for _, r := range ranges {
		fmt.Fprintf(&sb, "%s %d %d %d\n", id, r.Lo, r.Hi, commitTimestamp())
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		return resultcode.Wrapf(resultcode.CantWriteLogFile, "append consumption log %s: %v", l.path, err)
	}
	if err := f.Sync(); err != nil {
		return resultcode.Wrapf(resultcode.CantWriteLogFile, "sync consumption log %s: %v", l.path, err)
	}

	l.ranges[id] = append(l.ranges[id], ranges...)
	sortRanges(l.ranges[id])
	return nil
}
