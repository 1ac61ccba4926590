// Package resultcode models the OT7 error taxonomy from spec.md §7 as a
// tagged error variant with a stable numeric projection, used as the
// process exit status.
package resultcode

import "fmt"

// Code is a stable, named result code. The zero value is reserved for
// success and is never returned as an error.
type Code int

const (
	_ Code = iota // 0 reserved for success

	// I/O errors, one per role.
	CantOpenPlaintextFile
	CantReadPlaintextFile
	CantWritePlaintextFile
	CantOpenEncryptedFile
	CantReadEncryptedFile
	CantWriteEncryptedFile
	CantSeekEncryptedFile
	CantOpenKeyFile
	CantReadKeyFile
	CantWriteKeyFile
	CantSeekKeyFile
	CantOpenKeyMapFile
	CantReadKeyMapFile
	CantParseKeyMapFile
	CantOpenLogFile
	CantReadLogFile
	CantWriteLogFile

	// Configuration errors.
	InvalidFileName
	MissingParameter
	MissingKeyID
	UnknownKeyID

	// Capacity errors.
	KeyFileTooSmall
	RanOutOfKey
	RanOutOfKeyInOneTimePad

	// Cryptographic verification errors.
	InvalidHeaderKeyMatch
	InvalidChecksumDecrypted

	// Protocol-format errors.
	InvalidEncryptedFileFormat

	// Self-test failures.
	SelfTestFailed
)

var names = map[Code]string{
	CantOpenPlaintextFile:       "CANT_OPEN_PLAINTEXT_FILE",
	CantReadPlaintextFile:       "CANT_READ_PLAINTEXT_FILE",
	CantWritePlaintextFile:      "CANT_WRITE_PLAINTEXT_FILE",
	CantOpenEncryptedFile:       "CANT_OPEN_ENCRYPTED_FILE",
	CantReadEncryptedFile:       "CANT_READ_ENCRYPTED_FILE",
	CantWriteEncryptedFile:      "CANT_WRITE_ENCRYPTED_FILE",
	CantSeekEncryptedFile:       "CANT_SEEK_ENCRYPTED_FILE",
	CantOpenKeyFile:             "CANT_OPEN_KEY_FILE",
	CantReadKeyFile:             "CANT_READ_KEY_FILE",
	CantWriteKeyFile:            "CANT_WRITE_KEY_FILE",
	CantSeekKeyFile:             "CANT_SEEK_KEY_FILE",
	CantOpenKeyMapFile:          "CANT_OPEN_KEY_MAP_FILE",
	CantReadKeyMapFile:          "CANT_READ_KEY_MAP_FILE",
	CantParseKeyMapFile:         "CANT_PARSE_KEY_MAP_FILE",
	CantOpenLogFile:             "CANT_OPEN_LOG_FILE",
	CantReadLogFile:             "CANT_READ_LOG_FILE",
	CantWriteLogFile:            "CANT_WRITE_LOG_FILE",
	InvalidFileName:             "INVALID_FILE_NAME",
	MissingParameter:            "MISSING_PARAMETER",
	MissingKeyID:                "MISSING_KEY_ID",
	UnknownKeyID:                "UNKNOWN_KEY_ID",
	KeyFileTooSmall:             "KEY_FILE_TOO_SMALL",
	RanOutOfKey:                 "RAN_OUT_OF_KEY",
	RanOutOfKeyInOneTimePad:     "RAN_OUT_OF_KEY_IN_ONE_TIME_PAD",
	InvalidHeaderKeyMatch:       "INVALID_HEADER_KEY_MATCH",
	InvalidChecksumDecrypted:    "INVALID_CHECKSUM_DECRYPTED",
	InvalidEncryptedFileFormat:  "INVALID_ENCRYPTED_FILE_FORMAT",
	SelfTestFailed:              "SELF_TEST_FAILED",
}

// String returns the stable taxonomy name, e.g. "RAN_OUT_OF_KEY".
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN_CODE_%d", int(c))
}

// ExitStatus returns the process exit status for this code: its own
// ordinal, since spec.md §6 defines the taxonomy as "a fixed enumeration
// of result codes starting at 1 (0 reserved for success)".
func (c Code) ExitStatus() int { return int(c) }

// Error implements the error interface so a Code can be returned directly
// or wrapped with fmt.Errorf("...: %w", code).
func (c Code) Error() string { return c.String() }

// err pairs a Code with contextual detail, preserving %w-unwrapping to the
// Code for exit-status and taxonomy-name lookups.
type err struct {
	code Code
	msg  string
}

func (e *err) Error() string { return e.msg }
func (e *err) Unwrap() error { return e.code }

// Wrap builds an error that reports as msg but unwraps to code, so callers
// can both log a detailed message and recover the stable exit code with
// errors.As / errors.Is.
func Wrap(code Code, msg string) error {
	return &err{code: code, msg: msg}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(code Code, format string, args ...any) error {
	return Wrap(code, fmt.Sprintf(format, args...))
}
