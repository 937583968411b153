//go:build !linux && !freebsd && !darwin && !windows

package export

import "os"

func syncFile(f *os.File, _ bool) error {
	return f.Sync()
}
