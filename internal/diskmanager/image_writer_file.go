package diskmanager

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

// FileImageWriter writes the image with plain buffered file I/O.
type FileImageWriter struct{}

// NewFileImageWriter creates a new buffered file image writer
func NewFileImageWriter() *FileImageWriter {
	return &FileImageWriter{}
}

// WriteImage implements ImageWriter.
func (w *FileImageWriter) WriteImage(path string, image []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return wrapWriteError("failed to create file", err)
	}
	defer file.Close()

	// Use a large buffered writer (1MB) for better performance
	bufferedWriter := bufio.NewWriterSize(file, 1024*1024)
	if _, err := io.Copy(bufferedWriter, bytes.NewReader(image)); err != nil {
		return wrapWriteError("failed to write file", err)
	}
	if err := bufferedWriter.Flush(); err != nil {
		return wrapWriteError("failed to flush file", err)
	}
	if err := file.Sync(); err != nil {
		return wrapWriteError("failed to sync file", err)
	}
	return nil
}
