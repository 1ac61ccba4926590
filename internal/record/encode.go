package record

import (
	"io"

	"github.com/otseven/OT7-sub000/internal/keystore"
	"github.com/otseven/OT7-sub000/internal/keystream"
	"github.com/otseven/OT7-sub000/internal/resultcode"
	"github.com/otseven/OT7-sub000/internal/skein"
)

// SumZSize is the size of the integrity field in bytes.
const SumZSize = 8

// EncodeOptions configures one encode operation (spec.md §4.4).
type EncodeOptions struct {
	KeyID           uint64
	Password        string
	FileName        string
	IncludeFileName bool

	// FillSize, when non-nil, is used verbatim instead of being derived
	// from OTP bytes (spec.md §4.4 step 2).
	FillSize      *uint64
	FillSizeBound uint64

	EraseOnUse bool
}

// EncodeResult reports what Encode actually wrote.
type EncodeResult struct {
	BytesWritten int64
	KeyAddress   uint64
	TextSize     uint64
	FillSize     uint64
}

// Encode reads exactly textSize bytes from plaintext, builds one OT7
// record under opts, and writes the finished binary record to out
// (spec.md §4.4 encode algorithm, steps 1-9).
func Encode(store *keystore.Store, plaintext io.Reader, textSize uint64, out io.Writer, opts EncodeOptions) (*EncodeResult, error) {
	fileNameBytes, err := encodeFileName(opts.FileName, opts.IncludeFileName)
	if err != nil {
		return nil, err
	}

	textWidth := byteWidth(textSize)

	bound := opts.FillSizeBound
	if bound == 0 {
		bound = DefaultFillSizeBound
	}

	haveExplicitFill := opts.FillSize != nil
	var explicitFill, maxFill uint64
	var fillWidth, extraKeyUsed int
	if haveExplicitFill {
		explicitFill = *opts.FillSize
		maxFill = explicitFill
		fillWidth = byteWidth(explicitFill)
		extraKeyUsed = 0
	} else {
		maxFill = bound - 1
		fillWidth = fillSizeWidth(bound)
		extraKeyUsed = fillWidth
	}

	// Worst-case main-region length: every width is already fixed, only
	// the TextFill payload's FillSize term is an upper bound until the
	// extra OTP bytes are read.
	maxMainLen := HeaderSeedSize + 1 + 1 + textWidth + fillWidth + 2 + len(fileNameBytes) + int(textSize+maxFill) + SumZSize

	alloc, err := store.Reserve(opts.KeyID, uint64(extraKeyUsed), uint64(maxMainLen))
	if err != nil {
		return nil, err
	}

	raw, err := store.OpenRawReader(alloc.Path, alloc.ExtraStart)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	var fillSize uint64
	if haveExplicitFill {
		fillSize = explicitFill
	} else {
		extra := make([]byte, extraKeyUsed)
		if _, err := io.ReadFull(raw, extra); err != nil {
			return nil, resultcode.Wrapf(resultcode.RanOutOfKey, "reading extra key bytes: %v", err)
		}
		fillSize = deriveFillSize(extra, opts.Password, bound)
	}

	var headerSeed [HeaderSeedSize]byte
	if _, err := io.ReadFull(raw, headerSeed[:]); err != nil {
		return nil, resultcode.Wrapf(resultcode.RanOutOfKey, "reading header seed: %v", err)
	}

	headerKey := DeriveHeaderKey(headerSeed, opts.Password)
	keyIDHash, addressMask := DeriveIdentity(headerKey, opts.KeyID, opts.Password)
	header := Header{
		HeaderKey:     headerKey,
		KeyIDHash:     keyIDHash,
		MaskedAddress: MaskAddress(alloc.KeyAddress, addressMask),
	}

	prf := skein.NewPRF(PRFSeed(headerSeed, opts.Password))
	fillPRF := skein.NewPRF(FillPRFSeed(headerSeed, opts.Password))

	bodyLen := HeaderSeedSize + 1 + 1 + textWidth + fillWidth + 2 + len(fileNameBytes) + int(textSize+fillSize) + SumZSize
	mixer := keystream.New(raw, prf, bodyLen-HeaderSeedSize)

	sumHash := skein.New1024(SumZSize * 8)

	if _, err := out.Write(header.MarshalBinary()); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "writing header: %v", err)
	}

	writeField := func(plain []byte) error {
		sumHash.Write(plain)
		cipher := append([]byte(nil), plain...)
		if _, err := mixer.XOR(cipher); err != nil {
			return err
		}
		if _, err := out.Write(cipher); err != nil {
			return resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "writing record body: %v", err)
		}
		return nil
	}

	if err := writeField([]byte{byte(extraKeyUsed)}); err != nil {
		return nil, err
	}
	if err := writeField([]byte{packSizeBits(textWidth, fillWidth)}); err != nil {
		return nil, err
	}
	if err := writeField(putUintLE(textSize, textWidth)); err != nil {
		return nil, err
	}
	if err := writeField(putUintLE(fillSize, fillWidth)); err != nil {
		return nil, err
	}
	if err := writeField(putUintLE(uint64(len(fileNameBytes)), 2)); err != nil {
		return nil, err
	}
	if len(fileNameBytes) > 0 {
		if err := writeField(fileNameBytes); err != nil {
			return nil, err
		}
	}

	text := make([]byte, textSize)
	if _, err := io.ReadFull(plaintext, text); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantReadPlaintextFile, "reading plaintext: %v", err)
	}
	sumHash.Write(text)

	fill := fillPRF.Next(int(fillSize))
	combined := interleaveTextFill(text, fill)
	if _, err := mixer.XOR(combined); err != nil {
		return nil, err
	}
	if _, err := out.Write(combined); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "writing text/fill: %v", err)
	}

	sumZ := sumHash.Sum(nil)[:SumZSize]
	if _, err := mixer.XOR(sumZ); err != nil {
		return nil, err
	}
	if _, err := out.Write(sumZ); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantWriteEncryptedFile, "writing checksum: %v", err)
	}

	alloc.BodyLength = uint64(bodyLen)
	if err := store.Commit(alloc); err != nil {
		return nil, err
	}
	if opts.EraseOnUse {
		if err := store.Erase(alloc); err != nil {
			return nil, err
		}
	}

	return &EncodeResult{
		BytesWritten: int64(HeaderSize + bodyLen),
		KeyAddress:   alloc.KeyAddress,
		TextSize:     textSize,
		FillSize:     fillSize,
	}, nil
}
