// Package keystore implements the OT7 Key Store (spec.md §4.5): the key
// map that names usable key files, the append-only consumption log that
// remembers which byte ranges of each key file are already spent, and the
// allocator that grants fresh, non-overlapping regions from the remainder.
package keystore

import (
	"io"
	"os"
	"time"

	"github.com/otseven/OT7-sub000/internal/resultcode"
)

// commitTimestamp returns the timestamp recorded alongside a newly
// committed range, for audit purposes only; nothing in the protocol reads
// it back.
func commitTimestamp() int64 { return time.Now().UnixNano() }

// Store ties a key map to its consumption log and allocator, giving
// encode and decode a single entry point for reserving, committing, and
// erasing one-time pad byte ranges.
type Store struct {
	Map *KeyMap
	log *Log
}

// Open loads the key map at keyMapPath and the consumption log at
// logPath, creating the log if it does not yet exist.
func Open(keyMapPath, logPath string) (*Store, error) {
	km, err := LoadKeyMap(keyMapPath)
	if err != nil {
		return nil, err
	}
	log, err := OpenLog(logPath)
	if err != nil {
		return nil, err
	}
	return &Store{Map: km, log: log}, nil
}

// Allocation is a granted, not-yet-committed region of one-time pad bytes
// from a single key file. ExtraStart..KeyAddress is the "extra key" region
// (ExtraKeyUsed) whose bytes derive FillSize; KeyAddress..KeyAddress+
// BodyLength holds the header seed followed by the body region consumed by
// the field mixer (spec.md §4.4). Commit persists the whole span as one entry; nothing is written
// to the log until Commit is called, so a failed encode leaves the log
// untouched.
type Allocation struct {
	KeyID      uint64
	Identity   FileIdentity
	Path       string
	ExtraStart uint64
	KeyAddress uint64
	BodyLength uint64
}

// Span returns the full range spent by the allocation, extra bytes
// included.
func (a *Allocation) Span() Range {
	return Range{Lo: a.ExtraStart, Hi: a.KeyAddress + a.BodyLength}
}

// Reserve finds a fresh, unused region of extraLen+bodyLength bytes in the
// key file registered under keyID, without yet committing it to the
// consumption log. extraLen is the number of one-time pad bytes consumed
// ahead of the returned KeyAddress to derive FillSize (ExtraKeyUsed).
// Decode does not call Reserve: it already knows KeyAddress and uses
// ReserveAt.
func (s *Store) Reserve(keyID uint64, extraLen, bodyLength uint64) (*Allocation, error) {
	def, ok := s.Map.Lookup(keyID)
	if !ok {
		return nil, resultcode.Wrapf(resultcode.UnknownKeyID, "no key map entry for key id %d", keyID)
	}

	id, err := NewFileIdentity(def.Path)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenKeyFile, "%v", err)
	}

	info, err := os.Stat(def.Path)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenKeyFile, "stat key file %s: %v", def.Path, err)
	}

	used := s.log.UsedRanges(id)
	region, err := Allocate(used, uint64(info.Size()), extraLen+bodyLength)
	if err != nil {
		return nil, err
	}

	return &Allocation{
		KeyID:      keyID,
		Identity:   id,
		Path:       def.Path,
		ExtraStart: region.Lo,
		KeyAddress: region.Lo + extraLen,
		BodyLength: bodyLength,
	}, nil
}

// ReserveAt builds an Allocation for a region decode already knows the
// address of (spec.md §4.3's header derivation discloses KeyAddress via
// the header fields, so decode does not call the forward allocator).
// extraLen is ExtraKeyUsed, only known once decode has decrypted the
// first body field. The caller is responsible for checking the region
// does not overlap an already-committed one before relying on its
// contents; Commit will still record it as consumed.
func (s *Store) ReserveAt(keyID uint64, keyAddress, extraLen, bodyLength uint64) (*Allocation, error) {
	def, ok := s.Map.Lookup(keyID)
	if !ok {
		return nil, resultcode.Wrapf(resultcode.UnknownKeyID, "no key map entry for key id %d", keyID)
	}
	id, err := NewFileIdentity(def.Path)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenKeyFile, "%v", err)
	}
	return &Allocation{
		KeyID:      keyID,
		Identity:   id,
		Path:       def.Path,
		ExtraStart: keyAddress - extraLen,
		KeyAddress: keyAddress,
		BodyLength: bodyLength,
	}, nil
}

// UsedRanges reports the committed byte ranges recorded for the key file
// identified by id, for diagnostics and testing.
func (s *Store) UsedRanges(id FileIdentity) []Range {
	return s.log.UsedRanges(id)
}

// Commit appends the allocation's full span to the consumption log. Call
// it only after the record using this allocation has been fully written
// (encode) or fully verified (decode).
func (s *Store) Commit(a *Allocation) error {
	return s.log.Commit(a.Identity, a.Span())
}

// OpenReader opens the key file and seeks to the allocation's extra-key
// start, returning a reader limited to exactly the allocated span.
func (s *Store) OpenReader(a *Allocation) (io.ReadCloser, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenKeyFile, "open key file %s: %v", a.Path, err)
	}
	if _, err := f.Seek(int64(a.ExtraStart), io.SeekStart); err != nil {
		f.Close()
		return nil, resultcode.Wrapf(resultcode.CantSeekKeyFile, "seek key file %s: %v", a.Path, err)
	}
	return &limitedReadCloser{f: f, remaining: int64(a.Span().Len())}, nil
}

// OpenRawReader opens the key file at path and seeks to offset, with no
// upper bound on how much the caller may read. The Record Codec uses this
// to read any extra bytes, the header seed, and the body region as one
// continuous sequential stream, since all three live back to back in the
// key file.
func (s *Store) OpenRawReader(path string, offset uint64) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenKeyFile, "open key file %s: %v", path, err)
	}
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		f.Close()
		return nil, resultcode.Wrapf(resultcode.CantSeekKeyFile, "seek key file %s: %v", path, err)
	}
	return f, nil
}

type limitedReadCloser struct {
	f         *os.File
	remaining int64
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.f.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (l limitedReadCloser) Close() error { return l.f.Close() }

// Erase overwrites the allocation's full span with zero bytes in the key
// file, for key definitions with EraseOnUse set (spec.md §4.5 "erase
// option"). Call it only after Commit has succeeded.
func (s *Store) Erase(a *Allocation) error {
	f, err := os.OpenFile(a.Path, os.O_WRONLY, 0)
	if err != nil {
		return resultcode.Wrapf(resultcode.CantWriteKeyFile, "open key file %s for erase: %v", a.Path, err)
	}
	defer f.Close()

	span := a.Span()
	if _, err := f.Seek(int64(span.Lo), io.SeekStart); err != nil {
		return resultcode.Wrapf(resultcode.CantSeekKeyFile, "seek key file %s for erase: %v", a.Path, err)
	}

	zeros := make([]byte, 4096)
	remaining := span.Len()
	for remaining > 0 {
		n := uint64(len(zeros))
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(zeros[:n]); err != nil {
			return resultcode.Wrapf(resultcode.CantWriteKeyFile, "erase key file %s: %v", a.Path, err)
		}
		remaining -= n
	}
	return f.Sync()
}
