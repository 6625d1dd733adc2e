package ioutils

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// InsufficientSpaceError is returned by CheckFreeSpace when a write of the
// requested size would not fit.
type InsufficientSpaceError struct {
	Path      string
	Required  uint64
	Available uint64
}

// Error implements the error interface.
func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough space in %s: need %d bytes, %d available", e.Path, e.Required, e.Available)
}

// CheckFreeSpace verifies that the file system holding path has at least
// size bytes free. A failed usage lookup is not treated as an error, since
// some file systems do not report usage.
func CheckFreeSpace(path string, size uint64) error {
	usage, err := disk.Usage(path)
	if err != nil {
		return nil
	}
	if usage.Free < size {
		return &InsufficientSpaceError{Path: path, Required: size, Available: usage.Free}
	}
	return nil
}
