package diskmanager

import (
	"fmt"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
)

// DiskfsImageWriter allocates the image file through go-diskfs with
// 512-byte sectors, then copies the rendered bytes into it.
type DiskfsImageWriter struct{}

// NewDiskfsImageWriter creates a new go-diskfs based image writer
func NewDiskfsImageWriter() *DiskfsImageWriter {
	return &DiskfsImageWriter{}
}

// WriteImage implements ImageWriter.
func (w *DiskfsImageWriter) WriteImage(path string, image []byte) error {
	if len(image) == 0 || len(image)%int(diskfs.SectorSize512) != 0 {
		return fmt.Errorf("image of %d bytes is not a whole number of sectors", len(image))
	}

	d, err := diskfs.Create(path, int64(len(image)), diskfs.SectorSize512)
	if err != nil {
		return wrapWriteError("failed to create disk", err)
	}
	// diskfs keeps no state that needs an explicit close
	if d.LogicalBlocksize != int64(diskfs.SectorSize512) || d.Size != int64(len(image)) {
		return fmt.Errorf("disk created with %d-byte sectors and %d bytes", d.LogicalBlocksize, d.Size)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return wrapWriteError("failed to open disk", err)
	}
	if _, err := f.WriteAt(image, 0); err != nil {
		f.Close()
		return wrapWriteError("failed to write disk", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return wrapWriteError("failed to sync disk", err)
	}
	if err := f.Close(); err != nil {
		return wrapWriteError("failed to close disk", err)
	}
	return nil
}
