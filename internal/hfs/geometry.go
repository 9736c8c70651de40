package hfs

import "fmt"

// SectorSize is the logical block size of every supported medium.
const SectorSize = 512

// Geometry is a removable medium the renderer can target.
type Geometry struct {
	Name string
	Size int64
}

var (
	Floppy400K = Geometry{Name: "400K single-sided floppy", Size: 400 * 1024}
	Floppy800K = Geometry{Name: "800K double-sided floppy", Size: 800 * 1024}
	FloppyHD   = Geometry{Name: "1440K high-density floppy", Size: 1440 * 1024}
)

// SupportedGeometries lists the media sizes Render accepts.
var SupportedGeometries = []Geometry{Floppy400K, Floppy800K, FloppyHD}

// GeometryForSize returns the supported geometry with the given size.
func GeometryForSize(size int64) (Geometry, bool) {
	for _, g := range SupportedGeometries {
		if g.Size == size {
			return g, true
		}
	}
	return Geometry{}, false
}

// layout is the block arithmetic derived from a size and alignment.
type layout struct {
	sectors        int64
	allocBlockSize uint32
	bitmapStart    uint16
	allocStart     uint16 // in sectors
	allocBlocks    uint16
}

func newLayout(size int64, align int) (layout, error) {
	if _, ok := GeometryForSize(size); !ok {
		return layout{}, fmt.Errorf("%w: %d bytes is not a supported medium size", ErrGeometry, size)
	}
	if align <= 0 || align%SectorSize != 0 {
		return layout{}, fmt.Errorf("%w: alignment %d is not a positive multiple of %d", ErrGeometry, align, SectorSize)
	}
	if size%int64(align) != 0 {
		return layout{}, fmt.Errorf("%w: alignment %d does not divide size %d", ErrGeometry, align, size)
	}

	l := layout{sectors: size / SectorSize, bitmapStart: 3}

	// HFS addresses at most 65535 allocation blocks.
	blockSize := SectorSize * ceilDiv(l.sectors, 65535)
	blockSize = roundUp(blockSize, int64(align))
	l.allocBlockSize = uint32(blockSize)

	maxBlocks := ceilDiv(size, blockSize)
	bitmapSectors := ceilDiv(maxBlocks, SectorSize*8)
	allocStart := int64(l.bitmapStart) + bitmapSectors
	allocStart = roundUp(allocStart, int64(align/SectorSize))
	l.allocStart = uint16(allocStart)

	// The last two sectors hold the alternate MDB and a reserved sector.
	usable := (l.sectors - 2 - allocStart) * SectorSize
	if usable <= 0 {
		return layout{}, fmt.Errorf("%w: no room for allocation blocks", ErrGeometry)
	}
	l.allocBlocks = uint16(usable / blockSize)
	return l, nil
}

// offset returns the byte offset of an allocation block.
func (l layout) offset(block uint16) int64 {
	return int64(l.allocStart)*SectorSize + int64(block)*int64(l.allocBlockSize)
}

// blocksFor returns the allocation blocks needed to hold n bytes.
func (l layout) blocksFor(n int) int64 {
	return ceilDiv(int64(n), int64(l.allocBlockSize))
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func roundUp(a, m int64) int64 {
	return ceilDiv(a, m) * m
}
