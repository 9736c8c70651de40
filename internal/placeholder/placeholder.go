// Package placeholder generates the seed payloads for the Stickies
// placeholder disk and finds the placeholder again inside disk images.
package placeholder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	StickiesFileName = "Stickies file"
	WelcomeFileName  = "Welcome!"

	StickiesType    = "notz"
	StickiesCreator = "notz"
	WelcomeType     = "TEXT"
	WelcomeCreator  = "ttxt"

	// BlockSize is the granularity of the placeholder pattern.
	BlockSize = 512

	DefaultStickiesSize = 64 * 1024
)

var (
	ErrInvalidSize = errors.New("invalid placeholder size")
	ErrNotFound    = errors.New("placeholder not found")
)

// marker starts every placeholder block, followed by the block index and
// the total block count as big-endian uint32s.
var marker = []byte("STICKIES PLACEHOLDER")

const headerSize = 20 + 8

// DefaultWelcome is the text of the companion "Welcome!" file.
const DefaultWelcome = `Welcome!

This disk holds a placeholder "Stickies file". Copy it into the
Preferences folder of the System Folder, then run Speed Disk so the
file ends up in one contiguous piece.
`

// Generator produces the seed file payloads.
type Generator struct {
	// StickiesSize is rounded up to a whole number of blocks.
	StickiesSize int
	Welcome      string
}

// NewGenerator returns a generator with default sizes and text.
func NewGenerator() *Generator {
	return &Generator{StickiesSize: DefaultStickiesSize, Welcome: DefaultWelcome}
}

// Stickies returns the placeholder data fork. Each block carries the
// marker and its index so the file can be located on another disk.
func (g *Generator) Stickies() ([]byte, error) {
	if g.StickiesSize <= 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, g.StickiesSize)
	}
	blocks := (g.StickiesSize + BlockSize - 1) / BlockSize
	data := make([]byte, blocks*BlockSize)
	for i := 0; i < blocks; i++ {
		block := data[i*BlockSize:]
		copy(block, marker)
		binary.BigEndian.PutUint32(block[len(marker):], uint32(i))
		binary.BigEndian.PutUint32(block[len(marker)+4:], uint32(blocks))
	}
	return data, nil
}

// WelcomeText returns the companion text as Mac Roman with CR line endings.
func (g *Generator) WelcomeText() ([]byte, error) {
	text := strings.ReplaceAll(g.Welcome, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\r")
	b, err := charmap.Macintosh.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode welcome text: %w", err)
	}
	return b, nil
}

// Location is where a placeholder was found in an image.
type Location struct {
	// Offset of block 0 in bytes.
	Offset int64
	Blocks int
	// Contiguous is true when every block directly follows its predecessor.
	Contiguous bool
}

// Locate scans a disk image for placeholder blocks. Blocks are expected
// on BlockSize boundaries, which holds for any HFS allocation block size.
func Locate(image []byte) (Location, error) {
	offsets := make(map[uint32]int64)
	var total uint32
	for off := 0; off+headerSize <= len(image); off += BlockSize {
		block := image[off:]
		if !bytes.HasPrefix(block, marker) {
			continue
		}
		idx := binary.BigEndian.Uint32(block[len(marker):])
		n := binary.BigEndian.Uint32(block[len(marker)+4:])
		if n == 0 || idx >= n || (total != 0 && n != total) {
			continue
		}
		total = n
		if _, dup := offsets[idx]; !dup {
			offsets[idx] = int64(off)
		}
	}
	first, ok := offsets[0]
	if !ok || total == 0 {
		return Location{}, ErrNotFound
	}
	loc := Location{Offset: first, Blocks: len(offsets), Contiguous: len(offsets) == int(total)}
	for i := uint32(1); i < total && loc.Contiguous; i++ {
		if offsets[i] != first+int64(i)*BlockSize {
			loc.Contiguous = false
		}
	}
	return loc, nil
}
