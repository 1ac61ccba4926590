package record

import (
	"bytes"
	"io"

	"github.com/otseven/OT7-sub000/internal/keystore"
	"github.com/otseven/OT7-sub000/internal/keystream"
	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/otseven/OT7-sub000/internal/skein"
)

// decodeMixerLimit stands in for "no practical limit": decode does not
// know the body length until it has decrypted the size fields, so the
// Mixer's own limit check never fires on the decode path. Running past
// the actual key file length still fails, via the underlying OTP reader
// returning RAN_OUT_OF_KEY.
const decodeMixerLimit = 1 << 40

// DecodeOptions configures one decode operation (spec.md §4.4).
type DecodeOptions struct {
	// CommitRange records the consumed OTP range in the consumption log
	// on success (spec.md §4.4 step 7, "optionally").
	CommitRange bool
	EraseOnUse  bool
}

// DecodeResult reports what Decode recovered.
type DecodeResult struct {
	BytesWritten  int64
	FileName      string
	KeyID         uint64
	Trials        int
	ChecksumValid bool
}

// Decode reads one OT7 record from in, trial-matching every key
// definition in store's key map against the header (spec.md §4.3), and on
// a match writes the recovered plaintext to out (spec.md §4.4 decode
// algorithm, steps 1-7).
//
// A checksum mismatch is reported as a non-nil error wrapping
// resultcode.InvalidChecksumDecrypted, but the plaintext is still written
// and DecodeResult is still returned, per spec.md §4.4's failure
// semantics.
func Decode(store *keystore.Store, in io.Reader, out io.Writer, opts DecodeOptions) (*DecodeResult, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(in, headerBuf); err != nil {
		return nil, resultcode.Wrapf(resultcode.InvalidEncryptedFileFormat, "reading header: %v", err)
	}
	header, err := UnmarshalHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(in)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantReadEncryptedFile, "reading record body: %v", err)
	}

	def, candidateAddr, headerSeed, raw, trials, err := resolveCandidate(store, header)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	prf := skein.NewPRF(PRFSeed(headerSeed, def.Password))
	mixer := keystream.New(raw, prf, decodeMixerLimit)

	pos := 0
	decrypt := func(n int) ([]byte, error) {
		if n == 0 {
			return nil, nil
		}
		if pos+n > len(body) {
			return nil, resultcode.Wrapf(resultcode.InvalidEncryptedFileFormat,
				"record body truncated: need %d more bytes at offset %d", n, pos)
		}
		chunk := append([]byte(nil), body[pos:pos+n]...)
		pos += n
		if _, err := mixer.XOR(chunk); err != nil {
			return nil, err
		}
		return chunk, nil
	}

	extraKeyUsedField, err := decrypt(1)
	if err != nil {
		return nil, err
	}
	extraKeyUsed := int(extraKeyUsedField[0])

	sizeBitsField, err := decrypt(1)
	if err != nil {
		return nil, err
	}
	textWidth, fillWidth := unpackSizeBits(sizeBitsField[0])

	textSizeField, err := decrypt(textWidth)
	if err != nil {
		return nil, err
	}
	textSize := getUintLE(textSizeField)

	fillSizeField, err := decrypt(fillWidth)
	if err != nil {
		return nil, err
	}
	fillSize := getUintLE(fillSizeField)

	fileNameSizeField, err := decrypt(2)
	if err != nil {
		return nil, err
	}
	fileNameSize := int(getUintLE(fileNameSizeField))

	var fileNameField []byte
	if fileNameSize > 0 {
		fileNameField, err = decrypt(fileNameSize)
		if err != nil {
			return nil, err
		}
	}

	sumHash := skein.New1024(SumZSize * 8)
	sumHash.Write(extraKeyUsedField)
	sumHash.Write(sizeBitsField)
	sumHash.Write(textSizeField)
	sumHash.Write(fillSizeField)
	sumHash.Write(fileNameSizeField)
	sumHash.Write(fileNameField)

	combined, err := decrypt(int(textSize + fillSize))
	if err != nil {
		return nil, err
	}
	text, _ := splitTextFill(combined, int(textSize), int(fillSize))
	sumHash.Write(text)

	written, writeErr := out.Write(text)
	if writeErr != nil {
		return nil, resultcode.Wrapf(resultcode.CantWritePlaintextFile, "writing plaintext: %v", writeErr)
	}

	sumZField, err := decrypt(SumZSize)
	if err != nil {
		return nil, err
	}
	computedSum := sumHash.Sum(nil)[:SumZSize]
	checksumValid := bytes.Equal(sumZField, computedSum)

	if opts.CommitRange && checksumValid {
		bodyLen := HeaderSeedSize + 1 + 1 + textWidth + fillWidth + 2 + fileNameSize + int(textSize+fillSize) + SumZSize
		alloc, err := store.ReserveAt(def.KeyID, candidateAddr, uint64(extraKeyUsed), uint64(bodyLen))
		if err == nil {
			if err := store.Commit(alloc); err == nil && opts.EraseOnUse {
				store.Erase(alloc)
			}
		}
	}

	result := &DecodeResult{
		BytesWritten:  int64(written),
		FileName:      string(fileNameField),
		KeyID:         def.KeyID,
		Trials:        trials,
		ChecksumValid: checksumValid,
	}
	if !checksumValid {
		return result, resultcode.Wrap(resultcode.InvalidChecksumDecrypted, "decoded checksum does not match recovered plaintext")
	}
	return result, nil
}

// resolveCandidate trial-matches every key definition against header
// (spec.md §4.3's decode candidate test), returning the winning
// definition, the resolved KeyAddress, the raw header-seed bytes read at
// that address, and a reader positioned immediately after them — ready
// for the Keystream Mixer to continue from.
func resolveCandidate(store *keystore.Store, header Header) (keystore.KeyDef, uint64, [HeaderSeedSize]byte, io.ReadCloser, int, error) {
	trials := 0
	for _, def := range store.Map.Defs {
		trials++

		candKeyIDHash, candAddressMask := DeriveIdentity(header.HeaderKey, def.KeyID, def.Password)
		if candKeyIDHash != header.KeyIDHash {
			continue
		}

		candidateAddr := UnmaskAddress(header.MaskedAddress, candAddressMask)

		raw, err := store.OpenRawReader(def.Path, candidateAddr)
		if err != nil {
			continue
		}

		var headerSeed [HeaderSeedSize]byte
		if _, err := io.ReadFull(raw, headerSeed[:]); err != nil {
			raw.Close()
			continue
		}

		if DeriveHeaderKey(headerSeed, def.Password) != header.HeaderKey {
			raw.Close()
			continue
		}

		return def, candidateAddr, headerSeed, raw, trials, nil
	}

	return keystore.KeyDef{}, 0, [HeaderSeedSize]byte{}, nil, trials,
		resultcode.Wrap(resultcode.InvalidHeaderKeyMatch, "no key definition decodes this record")
}
