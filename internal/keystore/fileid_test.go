package keystore

import "testing"

func TestNewFileIdentityIsStable(t *testing.T) {
	a, err := NewFileIdentity("./testdata/key.bin")
	if err != nil {
		t.Fatalf("NewFileIdentity() error = %v", err)
	}
	b, err := NewFileIdentity("testdata/key.bin")
	if err != nil {
		t.Fatalf("NewFileIdentity() error = %v", err)
	}
	if a != b {
		t.Error("identities for the same path via different spellings differ")
	}
}

func TestNewFileIdentityDiffersByPath(t *testing.T) {
	a, _ := NewFileIdentity("testdata/key-a.bin")
	b, _ := NewFileIdentity("testdata/key-b.bin")
	if a == b {
		t.Error("distinct paths produced the same identity")
	}
}

func TestFileIdentityRoundTripsThroughString(t *testing.T) {
	id, _ := NewFileIdentity("testdata/key.bin")
	parsed, err := ParseFileIdentity(id.String())
	if err != nil {
		t.Fatalf("ParseFileIdentity() error = %v", err)
	}
	if parsed != id {
		t.Error("round trip through String/ParseFileIdentity changed the identity")
	}
}

func TestParseFileIdentityRejectsBadLength(t *testing.T) {
	if _, err := ParseFileIdentity("deadbeef"); err == nil {
		t.Error("expected an error for a too-short hex string")
	}
}
