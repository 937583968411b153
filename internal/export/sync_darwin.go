//go:build darwin

package export

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile flushes file data to disk.
//
// With fullsync, F_FULLFSYNC forces the drive to flush its own cache.
// Otherwise regular fsync is used; macOS has no fdatasync.
func syncFile(f *os.File, fullsync bool) error {
	if fullsync {
		_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(int(f.Fd()))
}
