package keystore

import (
	"fmt"
	"os"
	"strings"

	"github.com/otseven/OT7-sub000/internal/resultcode"
	"gopkg.in/yaml.v3"
)

// KeyDef is one key definition from a key-map file: the information
// needed to use a one-time pad key file for a particular KeyID
// (spec.md §3 "Key Map", supplemented from original_source/OT7.c's
// discussion of key definitions).
type KeyDef struct {
	KeyID uint64 `yaml:"key_id"`
	Path  string `yaml:"path"`

	// Password defaults to empty. A password given on the command line
	// overrides this default (spec.md §4.1).
	Password string `yaml:"password,omitempty"`

	// FillSizeBound bounds the PRF-chosen fill size when the caller does
	// not request an explicit fill size with -f (spec.md §4.4 step 2).
	// Zero means use the package default.
	FillSizeBound int `yaml:"fill_size_bound,omitempty"`

	// IncludeFileName is parsed from the key map, but the encode command
	// does not read it: the plaintext file name is embedded unless
	// -nofilename is given.
	IncludeFileName bool `yaml:"include_file_name"`

	// EraseOnUse zeroes consumed one-time pad bytes after a successful
	// encode under this key, in addition to encode's --erase flag
	// (spec.md §4.5 "Erase option"). Decode applies only its own --erase
	// flag.
	EraseOnUse bool `yaml:"erase_on_use"`
}

// KeyMap is a parsed key-map configuration file: an ordered list of key
// definitions. Decode trial-matching (spec.md §4.3) iterates Defs in file
// order, which is deterministic within a run as spec.md §4.3 requires.
type KeyMap struct {
	Defs []KeyDef `yaml:"keys"`
}

// LoadKeyMap reads and parses a key-map file from path.
func LoadKeyMap(path string) (*KeyMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, resultcode.Wrapf(resultcode.CantOpenKeyMapFile, "read key map %s: %v", path, err)
	}
	return ParseKeyMap(data)
}

// ParseKeyMap parses a key-map file's YAML bytes.
func ParseKeyMap(data []byte) (*KeyMap, error) {
	var km KeyMap
	if err := yaml.Unmarshal(data, &km); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantParseKeyMapFile, "parse key map: %v", err)
	}
	if err := km.Validate(); err != nil {
		return nil, resultcode.Wrapf(resultcode.CantParseKeyMapFile, "key map validation failed: %v", err)
	}
	return &km, nil
}

// Validate checks the key map for structural errors: duplicate KeyIDs and
// missing required fields.
func (km *KeyMap) Validate() error {
	var errs []string
	seen := make(map[uint64]bool, len(km.Defs))

	for i, def := range km.Defs {
		if def.Path == "" {
			errs = append(errs, fmt.Sprintf("keys[%d]: path is required", i))
		}
		if seen[def.KeyID] {
			errs = append(errs, fmt.Sprintf("keys[%d]: duplicate key_id %d", i, def.KeyID))
		}
		seen[def.KeyID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Lookup returns the key definition for keyID.
func (km *KeyMap) Lookup(keyID uint64) (KeyDef, bool) {
	for _, def := range km.Defs {
		if def.KeyID == keyID {
			return def, true
		}
	}
	return KeyDef{}, false
}
