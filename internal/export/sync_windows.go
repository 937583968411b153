//go:build windows

package export

import (
	"os"

	"golang.org/x/sys/windows"
)

// syncFile flushes file data and metadata to disk with FlushFileBuffers.
// The fullsync parameter is ignored.
func syncFile(f *os.File, _ bool) error {
	return windows.FlushFileBuffers(windows.Handle(f.Fd()))
}
