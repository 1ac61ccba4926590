package record

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/otseven/OT7-sub000/internal/keystore"
	"github.com/otseven/OT7-sub000/internal/resultcode"
)

func newTestStore(t *testing.T, keyFileSize int) (*keystore.Store, string) {
	t.Helper()
	dir := t.TempDir()

	keyPath := filepath.Join(dir, "key.bin")
	keyBytes := make([]byte, keyFileSize)
	for i := range keyBytes {
		keyBytes[i] = byte((i*37 + 11) % 256)
	}
	if err := os.WriteFile(keyPath, keyBytes, 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	kmPath := filepath.Join(dir, "keymap.yaml")
	contents := "keys:\n  - key_id: 123\n    path: " + keyPath + "\n"
	if err := os.WriteFile(kmPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write key map: %v", err)
	}

	logPath := filepath.Join(dir, "consumption.log")
	s, err := keystore.Open(kmPath, logPath)
	if err != nil {
		t.Fatalf("keystore.Open() error = %v", err)
	}
	return s, keyPath
}

func zeroFill(n uint64) *uint64 { return &n }

func TestRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, 4096)

	// Decode trial-matches with the key map's password, so the key
	// definition carries the password the record is encoded under.
	store.Map.Defs[0].Password = "correct horse"

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	var encoded bytes.Buffer

	encRes, err := Encode(store, bytes.NewReader(plaintext), uint64(len(plaintext)), &encoded, EncodeOptions{
		KeyID:    123,
		Password: "correct horse",
		FillSize: zeroFill(0),
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if encRes.TextSize != uint64(len(plaintext)) {
		t.Errorf("TextSize = %d, want %d", encRes.TextSize, len(plaintext))
	}

	var decoded bytes.Buffer
	decRes, err := Decode(store, bytes.NewReader(encoded.Bytes()), &decoded, DecodeOptions{CommitRange: false})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), plaintext) {
		t.Errorf("Decode() output = %q, want %q", decoded.Bytes(), plaintext)
	}
	if !decRes.ChecksumValid {
		t.Error("ChecksumValid = false, want true")
	}
	if decRes.KeyID != 123 {
		t.Errorf("KeyID = %d, want 123", decRes.KeyID)
	}
}

func TestEncodeLengthMatchesScenarioS1(t *testing.T) {
	store, _ := newTestStore(t, 4096)

	plaintext := []byte("hello")
	var encoded bytes.Buffer
	if _, err := Encode(store, bytes.NewReader(plaintext), 5, &encoded, EncodeOptions{
		KeyID:    123,
		Password: "",
		FillSize: zeroFill(0),
	}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	const want = 24 + 1 + 1 + 1 + 0 + 2 + 0 + 5 + 0 + 8
	if encoded.Len() != want {
		t.Errorf("encoded length = %d, want %d (spec.md §8 S1)", encoded.Len(), want)
	}
}

func TestEncodeLengthMatchesScenarioS2(t *testing.T) {
	store, _ := newTestStore(t, 4096)

	var encoded bytes.Buffer
	if _, err := Encode(store, bytes.NewReader(nil), 0, &encoded, EncodeOptions{
		KeyID:    123,
		Password: "",
		FillSize: zeroFill(0),
	}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	const want = 24 + 1 + 1 + 0 + 0 + 2 + 0 + 0 + 0 + 8
	if encoded.Len() != want {
		t.Errorf("encoded length = %d, want %d (spec.md §8 S2)", encoded.Len(), want)
	}

	var decoded bytes.Buffer
	res, err := Decode(store, bytes.NewReader(encoded.Bytes()), &decoded, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.Len() != 0 {
		t.Errorf("decoded %d bytes for an empty plaintext, want 0", decoded.Len())
	}
	if res.BytesWritten != 0 {
		t.Errorf("BytesWritten = %d, want 0", res.BytesWritten)
	}
}

func TestFileNameOmission(t *testing.T) {
	store, _ := newTestStore(t, 4096)

	plaintext := []byte("x")
	var encoded bytes.Buffer
	if _, err := Encode(store, bytes.NewReader(plaintext), 1, &encoded, EncodeOptions{
		KeyID:           123,
		Password:        "",
		IncludeFileName: false,
		FillSize:        zeroFill(0),
	}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded bytes.Buffer
	res, err := Decode(store, bytes.NewReader(encoded.Bytes()), &decoded, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if res.FileName != "" {
		t.Errorf("FileName = %q, want empty", res.FileName)
	}
}

func TestFileNameRoundTrips(t *testing.T) {
	store, _ := newTestStore(t, 4096)

	plaintext := []byte("contents")
	var encoded bytes.Buffer
	if _, err := Encode(store, bytes.NewReader(plaintext), uint64(len(plaintext)), &encoded, EncodeOptions{
		KeyID:           123,
		Password:        "",
		IncludeFileName: true,
		FileName:        "a.txt",
		FillSize:        zeroFill(1),
	}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var decoded bytes.Buffer
	res, err := Decode(store, bytes.NewReader(encoded.Bytes()), &decoded, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if res.FileName != "a.txt" {
		t.Errorf("FileName = %q, want a.txt", res.FileName)
	}
	if !bytes.Equal(decoded.Bytes(), plaintext) {
		t.Errorf("decoded = %q, want %q", decoded.Bytes(), plaintext)
	}
}

func TestChecksumMismatchIsDetectedButStillWritesOutput(t *testing.T) {
	store, _ := newTestStore(t, 4096)

	plaintext := []byte("tamper me please")
	var encoded bytes.Buffer
	if _, err := Encode(store, bytes.NewReader(plaintext), uint64(len(plaintext)), &encoded, EncodeOptions{
		KeyID:    123,
		Password: "",
		FillSize: zeroFill(0),
	}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	corrupted := append([]byte(nil), encoded.Bytes()...)
	corrupted[len(corrupted)-SumZSize-1] ^= 0xFF // flip a byte inside TextFill

	var decoded bytes.Buffer
	res, err := Decode(store, bytes.NewReader(corrupted), &decoded, DecodeOptions{})
	if err == nil {
		t.Fatal("expected a checksum mismatch error")
	}
	var code resultcode.Code
	if !errors.As(err, &code) || code != resultcode.InvalidChecksumDecrypted {
		t.Errorf("error = %v, want to unwrap to InvalidChecksumDecrypted", err)
	}
	if res == nil || decoded.Len() != len(plaintext) {
		t.Error("decode did not still write the (corrupted) plaintext output")
	}
}

func TestConsumptionLogRecordsDisjointRanges(t *testing.T) {
	store, keyPath := newTestStore(t, 2048)

	encodeOnce := func(text string) {
		t.Helper()
		var out bytes.Buffer
		if _, err := Encode(store, bytes.NewReader([]byte(text)), uint64(len(text)), &out, EncodeOptions{
			KeyID:    123,
			Password: "",
			FillSize: zeroFill(0),
		}); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
	}

	encodeOnce("first record")
	encodeOnce("second record")

	id, err := keystore.NewFileIdentity(keyPath)
	if err != nil {
		t.Fatalf("NewFileIdentity() error = %v", err)
	}
	ranges := store.UsedRanges(id)
	if len(ranges) != 2 {
		t.Fatalf("consumption log has %d ranges, want 2", len(ranges))
	}
	if ranges[0].Overlaps(ranges[1]) {
		t.Error("consumption log ranges overlap")
	}
}

func TestEncodeFailsWhenKeyFileExhausted(t *testing.T) {
	store, _ := newTestStore(t, 40) // barely large enough for one small record

	var out1 bytes.Buffer
	if _, err := Encode(store, bytes.NewReader([]byte("hi")), 2, &out1, EncodeOptions{
		KeyID:    123,
		Password: "",
		FillSize: zeroFill(0),
	}); err != nil {
		t.Fatalf("first Encode() error = %v", err)
	}

	var out2 bytes.Buffer
	_, err := Encode(store, bytes.NewReader([]byte("this will not fit anymore")), 25, &out2, EncodeOptions{
		KeyID:    123,
		Password: "",
		FillSize: zeroFill(0),
	})
	if err == nil {
		t.Fatal("expected the second encode to fail against an exhausted key file")
	}
}
