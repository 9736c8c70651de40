package diskmanager

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(size int) []byte {
	return bytes.Repeat([]byte{0x42, 0x44}, size/2)
}

// TestWithStagedImage checks the file is readable during fn and gone after.
func TestWithStagedImage(t *testing.T) {
	for _, kind := range []string{WriterDiskfs, WriterFile} {
		t.Run(kind, func(t *testing.T) {
			writer, err := NewImageWriter(kind)
			require.NoError(t, err)
			stager := NewStager(t.TempDir(), writer, nil)
			image := testImage(1440 * 1024)

			var staged string
			err = stager.WithStagedImage(image, "Stickies.dsk", func(path string) error {
				staged = path
				got, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, image, got)
				assert.Equal(t, "Stickies.dsk", filepath.Base(path))
				return nil
			})
			require.NoError(t, err)

			_, err = os.Stat(staged)
			assert.True(t, os.IsNotExist(err), "staged file should be removed")
			_, err = os.Stat(filepath.Dir(staged))
			assert.True(t, os.IsNotExist(err), "staging directory should be removed")
		})
	}
}

func TestWithStagedImageFreshDirectoryPerCall(t *testing.T) {
	stager := NewStager(t.TempDir(), nil, nil)
	var dirs []string
	for i := 0; i < 2; i++ {
		err := stager.WithStagedImage(testImage(1024), "a.dsk", func(path string) error {
			dirs = append(dirs, filepath.Dir(path))
			return nil
		})
		require.NoError(t, err)
	}
	assert.NotEqual(t, dirs[0], dirs[1])
}

func TestWithStagedImageCleansUpOnError(t *testing.T) {
	stager := NewStager(t.TempDir(), nil, nil)
	boom := errors.New("launch failed")

	var staged string
	err := stager.WithStagedImage(testImage(1024), "a.dsk", func(path string) error {
		staged = path
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(filepath.Dir(staged))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWithStagedImageCleansUpOnPanic(t *testing.T) {
	stager := NewStager(t.TempDir(), nil, nil)

	var staged string
	assert.Panics(t, func() {
		_ = stager.WithStagedImage(testImage(1024), "a.dsk", func(path string) error {
			staged = path
			panic("interrupted")
		})
	})
	_, err := os.Stat(filepath.Dir(staged))
	assert.True(t, os.IsNotExist(err))
}

type failingWriter struct{}

func (failingWriter) WriteImage(path string, image []byte) error {
	return errors.New("device error")
}

func TestWithStagedImageWriteFailure(t *testing.T) {
	root := t.TempDir()
	stager := NewStager(root, failingWriter{}, nil)

	called := false
	err := stager.WithStagedImage(testImage(1024), "a.dsk", func(string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrStagingFailed)
	assert.False(t, called)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory should be removed after a failed write")
}

func TestWithStagedImageMissingRoot(t *testing.T) {
	stager := NewStager(filepath.Join(t.TempDir(), "missing"), nil, nil)
	err := stager.WithStagedImage(testImage(1024), "a.dsk", func(string) error { return nil })
	assert.ErrorIs(t, err, ErrStagingFailed)
}

func TestWithStagedImageRejectsPaths(t *testing.T) {
	stager := NewStager(t.TempDir(), nil, nil)
	for _, name := range []string{"", ".", "..", "../escape.dsk", "sub/dir.dsk"} {
		err := stager.WithStagedImage(testImage(1024), name, func(string) error { return nil })
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
}

func TestDiskfsWriterRejectsPartialSector(t *testing.T) {
	err := NewDiskfsImageWriter().WriteImage(filepath.Join(t.TempDir(), "x.dsk"), make([]byte, 100))
	assert.Error(t, err)
}

func TestNewImageWriterUnknown(t *testing.T) {
	_, err := NewImageWriter("loopback")
	assert.Error(t, err)
}
