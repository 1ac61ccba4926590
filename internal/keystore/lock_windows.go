//go:build windows

package keystore

import "os"

// lockFile is a no-op on Windows: the protocol only recommends, but does
// not require, advisory locking (spec.md §5).
func lockFile(f *os.File) error { return nil }

func unlockFile(f *os.File) error { return nil }
