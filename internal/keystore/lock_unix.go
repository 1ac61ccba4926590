//go:build !windows

package keystore

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an advisory exclusive lock on f while Log.Commit appends
// committed ranges. This is recommended but not required by the OT7 wire
// format (spec.md §5). The lock covers only the append: allocation happens
// before it, so two processes can still be granted the same region of one
// key file.
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
