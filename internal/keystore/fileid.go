package keystore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/otseven/OT7-sub000/internal/skein"
)

// IDSize is the size of a FileIdentity in bytes (128 bits).
const IDSize = 16

// ErrInvalidIDLength is returned when a parsed identity is the wrong length.
var ErrInvalidIDLength = errors.New("invalid key-file identity length: expected 16 bytes")

// FileIdentity stably names a key file in the consumption log, independent
// of how its path is spelled on the command line or in the key map.
// Unlike a randomly generated identifier, it is derived deterministically
// from the file's absolute path so the log recognizes the same key file
// across runs without needing its own bookkeeping file.
type FileIdentity [IDSize]byte

// ZeroIdentity is the identity of no key file.
var ZeroIdentity = FileIdentity{}

// NewFileIdentity derives the identity of the key file at path.
func NewFileIdentity(path string) (FileIdentity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ZeroIdentity, fmt.Errorf("resolve key file path: %w", err)
	}

	digest := skein.Sum1024(IDSize*8, []byte(abs))

	var id FileIdentity
	copy(id[:], digest)
	return id, nil
}

// ParseFileIdentity parses a FileIdentity from its hex representation.
func ParseFileIdentity(s string) (FileIdentity, error) {
	s = strings.TrimSpace(s)
	if len(s) != IDSize*2 {
		return ZeroIdentity, fmt.Errorf("%w: got %d hex chars, expected %d", ErrInvalidIDLength, len(s), IDSize*2)
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return ZeroIdentity, fmt.Errorf("invalid hex key-file identity: %w", err)
	}

	var id FileIdentity
	copy(id[:], decoded)
	return id, nil
}

// String returns the hex representation of the identity.
func (id FileIdentity) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the zero identity.
func (id FileIdentity) IsZero() bool { return id == ZeroIdentity }
