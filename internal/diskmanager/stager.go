package diskmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gvisor.dev/gvisor/pkg/cleanup"
)

var (
	ErrStagingFailed = errors.New("staging failed")
	ErrInvalidPath   = errors.New("invalid path")
	ErrDiskFull      = errors.New("disk full")
)

// StagingPattern names the per-run temporary directories.
const StagingPattern = "stickies-*"

// Stager writes rendered images into short-lived staging directories.
type Stager struct {
	root   string
	writer ImageWriter
	logger *log.Logger
}

// NewStager creates a stager that makes its directories under root, or
// the system temporary directory when root is empty.
func NewStager(root string, writer ImageWriter, logger *log.Logger) *Stager {
	if writer == nil {
		writer = NewDiskfsImageWriter()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Stager{root: root, writer: writer, logger: logger}
}

// WithStagedImage writes image as name inside a fresh directory and
// calls fn with its path. The directory is removed when WithStagedImage
// returns, whether fn succeeds, fails or panics, so fn must finish using
// the file before returning.
//
// Example usage:
//
//	err := stager.WithStagedImage(image, "Stickies.dsk", func(path string) error {
//	    return launcher.Launch(ctx, session(path))
//	})
func (s *Stager) WithStagedImage(image []byte, name string, fn func(path string) error) error {
	if err := validateName(name); err != nil {
		return err
	}

	dir, err := os.MkdirTemp(s.root, StagingPattern)
	if err != nil {
		return fmt.Errorf("%w: create staging directory: %w", ErrStagingFailed, err)
	}
	cu := cleanup.Make(func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove staging directory", "dir", dir, "err", err)
			return
		}
		s.logger.Debug("removed staging directory", "dir", dir)
	})
	defer cu.Clean()

	path := filepath.Join(dir, name)
	if err := s.writer.WriteImage(path, image); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStagingFailed, path, err)
	}
	s.logger.Debug("staged image", "path", path, "bytes", len(image))

	return fn(path)
}

// validateName accepts plain file names only.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q is not a plain file name", ErrInvalidPath, name)
	}
	return nil
}
