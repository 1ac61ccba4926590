package keystore

import "testing"

const sampleKeyMap = `
keys:
  - key_id: 123
    path: /var/otp/alice.key
    password: "correct horse"
    include_file_name: true
  - key_id: 456
    path: /var/otp/bob.key
    erase_on_use: true
`

func TestParseKeyMap(t *testing.T) {
	km, err := ParseKeyMap([]byte(sampleKeyMap))
	if err != nil {
		t.Fatalf("ParseKeyMap() error = %v", err)
	}
	if len(km.Defs) != 2 {
		t.Fatalf("len(Defs) = %d, want 2", len(km.Defs))
	}

	def, ok := km.Lookup(123)
	if !ok {
		t.Fatal("Lookup(123) not found")
	}
	if def.Path != "/var/otp/alice.key" || def.Password != "correct horse" || !def.IncludeFileName {
		t.Errorf("unexpected def for key 123: %+v", def)
	}

	if _, ok := km.Lookup(999); ok {
		t.Error("Lookup(999) unexpectedly found")
	}
}

func TestParseKeyMapRejectsDuplicateKeyID(t *testing.T) {
	const dup = `
keys:
  - key_id: 1
    path: /a
  - key_id: 1
    path: /b
`
	if _, err := ParseKeyMap([]byte(dup)); err == nil {
		t.Fatal("expected an error for duplicate key_id")
	}
}

func TestParseKeyMapRejectsMissingPath(t *testing.T) {
	const missing = `
keys:
  - key_id: 1
`
	if _, err := ParseKeyMap([]byte(missing)); err == nil {
		t.Fatal("expected an error for missing path")
	}
}
