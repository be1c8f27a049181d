//go:build unix

package codec

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps f read-only. Empty files and file systems without mmap
// support report false.
func mapFile(f *os.File, size int) (*source, bool) {
	if size == 0 {
		return nil, false
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED) //nolint:gosec
	if err != nil {
		return nil, false
	}

	return &source{data: data, mapped: true, release: unix.Munmap}, true
}
