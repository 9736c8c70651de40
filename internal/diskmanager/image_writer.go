package diskmanager

import (
	"errors"
	"fmt"
	"syscall"
)

// ImageWriter persists a rendered disk image.
// Different implementations can allocate the backing file differently.
type ImageWriter interface {
	// WriteImage creates path and fills it with image.
	WriteImage(path string, image []byte) error
}

// Writer kinds accepted by NewImageWriter.
const (
	WriterDiskfs = "diskfs"
	WriterFile   = "file"
)

// NewImageWriter returns the writer registered under kind. An empty kind
// selects the go-diskfs writer.
func NewImageWriter(kind string) (ImageWriter, error) {
	switch kind {
	case "", WriterDiskfs:
		return NewDiskfsImageWriter(), nil
	case WriterFile:
		return NewFileImageWriter(), nil
	default:
		return nil, fmt.Errorf("unknown image writer %q", kind)
	}
}

// isOutOfSpaceError checks if an error is a "no space left on device" error
func isOutOfSpaceError(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

// wrapWriteError maps out-of-space conditions to ErrDiskFull.
func wrapWriteError(op string, err error) error {
	if isOutOfSpaceError(err) {
		return fmt.Errorf("%s: %w", op, ErrDiskFull)
	}
	return fmt.Errorf("%s: %w", op, err)
}
