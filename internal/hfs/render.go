package hfs

import (
	"fmt"
	"time"
)

// RenderOptions selects the medium an image is rendered for.
type RenderOptions struct {
	// Size is the total image size in bytes; it must match a supported geometry.
	Size int64
	// Align is the allocation block alignment in bytes.
	Align int
	// DesktopDB adds an empty desktop database for the Finder to populate.
	DesktopDB bool
	// Now stamps volume and file dates. Zero means time.Now.
	Now time.Time
}

// Desktop database files written when RenderOptions.DesktopDB is set.
const (
	DesktopDBName = "Desktop DB"
	DesktopDFName = "Desktop DF"
)

type placedFile struct {
	name   []byte
	file   *File
	record fileRecord
}

// Render lays the volume out as a complete HFS image of exactly
// opts.Size bytes. Forks are allocated contiguously in insertion order.
func (v *Volume) Render(opts RenderOptions) ([]byte, error) {
	l, err := newLayout(opts.Size, opts.Align)
	if err != nil {
		return nil, err
	}
	volName, err := encodeName(v.Name, maxVolumeNameLen)
	if err != nil {
		return nil, fmt.Errorf("volume name: %w", err)
	}
	if len(v.entries) == 0 {
		return nil, fmt.Errorf("%w: volume %q has no entries", ErrFormat, v.Name)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	stamp := toMacTime(now)

	entries := append([]entry(nil), v.entries...)
	if opts.DesktopDB {
		desktop, err := desktopEntries()
		if err != nil {
			return nil, err
		}
		entries = append(entries, desktop...)
	}

	files, err := placeFiles(entries, stamp)
	if err != nil {
		return nil, err
	}

	minNodes := int(opts.Size / (128 * nodeSize))
	extents, err := buildBTree(nil, extentsMaxKeyLen, minNodes)
	if err != nil {
		return nil, err
	}
	// Record sizes do not depend on extents, so this sizes the final tree.
	probe, err := buildBTree(catalogRecords(volName, files, stamp, stamp), catalogMaxKeyLen, minNodes)
	if err != nil {
		return nil, err
	}

	alloc := allocator{layout: l}
	xtExtent := alloc.take(len(extents))
	ctExtent := alloc.take(len(probe))
	for _, f := range files {
		f.record.data = alloc.fork(len(f.file.Data))
		f.record.rsrc = alloc.fork(len(f.file.Rsrc))
	}
	if alloc.next > int64(l.allocBlocks) {
		return nil, fmt.Errorf("%w: need %d allocation blocks of %d bytes, volume has %d",
			ErrCapacity, alloc.next, l.allocBlockSize, l.allocBlocks)
	}

	catalog, err := buildBTree(catalogRecords(volName, files, stamp, stamp), catalogMaxKeyLen, minNodes)
	if err != nil {
		return nil, err
	}

	img := make([]byte, opts.Size)
	copy(img[l.offset(xtExtent.start):], extents)
	copy(img[l.offset(ctExtent.start):], catalog)
	for _, f := range files {
		if len(f.file.Data) > 0 {
			copy(img[l.offset(f.record.data.extent.start):], f.file.Data)
		}
		if len(f.file.Rsrc) > 0 {
			copy(img[l.offset(f.record.rsrc.extent.start):], f.file.Rsrc)
		}
	}

	bitmapOff := int64(l.bitmapStart) * SectorSize
	setBits(img[bitmapOff:int64(l.allocStart)*SectorSize], int(alloc.next))

	m := mdb{
		created:        stamp,
		modified:       stamp,
		attributes:     attrUnmounted,
		rootFiles:      uint16(len(files)),
		bitmapStart:    l.bitmapStart,
		allocPtr:       uint16(alloc.next),
		allocBlocks:    l.allocBlocks,
		allocBlockSize: l.allocBlockSize,
		clumpSize:      4 * l.allocBlockSize,
		allocStart:     l.allocStart,
		nextCNID:       uint32(firstUserID + len(files)),
		freeBlocks:     l.allocBlocks - uint16(alloc.next),
		name:           volName,
		xtClumpSize:    uint32(len(extents)),
		ctClumpSize:    uint32(len(catalog)),
		fileCount:      uint32(len(files)),
		xtSize:         uint32(len(extents)),
		xtExtent:       xtExtent,
		ctSize:         uint32(len(catalog)),
		ctExtent:       ctExtent,
	}
	block := m.bytes()
	copy(img[mdbOffset:], block)
	copy(img[opts.Size-2*SectorSize:], block)
	return img, nil
}

func placeFiles(entries []entry, stamp uint32) ([]*placedFile, error) {
	files := make([]*placedFile, 0, len(entries))
	for i, e := range entries {
		if e.file == nil {
			return nil, fmt.Errorf("%w: entry %q has no file", ErrFormat, e.name)
		}
		name, err := encodeName(e.name, maxFileNameLen)
		if err != nil {
			return nil, err
		}
		for _, other := range files {
			if compareNames(name, other.name) == 0 {
				return nil, fmt.Errorf("%w: names %q and %q collide", ErrFormat, e.name, decodeName(other.name))
			}
		}
		typ, err := fourCC("type", e.file.Type)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.name, err)
		}
		creator, err := fourCC("creator", e.file.Creator)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.name, err)
		}
		if int64(len(e.file.Data)) > 0xFFFFFFFF || int64(len(e.file.Rsrc)) > 0xFFFFFFFF {
			return nil, fmt.Errorf("%w: %q is larger than 4 GiB", ErrCapacity, e.name)
		}

		created, modified := stamp, stamp
		if !e.file.Created.IsZero() {
			created = toMacTime(e.file.Created)
		}
		if !e.file.Modified.IsZero() {
			modified = toMacTime(e.file.Modified)
		}
		files = append(files, &placedFile{
			name: name,
			file: e.file,
			record: fileRecord{
				id:       uint32(firstUserID + i),
				typ:      typ,
				creator:  creator,
				flags:    e.file.Flags,
				created:  created,
				modified: modified,
			},
		})
	}
	return files, nil
}

// desktopEntries returns an empty desktop database; the Finder fills it
// in the first time the volume is mounted.
func desktopEntries() ([]entry, error) {
	db, err := buildBTree(nil, catalogMaxKeyLen, 1)
	if err != nil {
		return nil, err
	}
	return []entry{
		{name: DesktopDBName, file: &File{Data: db, Type: "BTFL", Creator: "DMGR", Flags: FlagInvisible}},
		{name: DesktopDFName, file: &File{Type: "DTFL", Creator: "DMGR", Flags: FlagInvisible}},
	}, nil
}

// allocator hands out consecutive allocation blocks.
type allocator struct {
	layout layout
	next   int64
}

func (a *allocator) take(n int) extent {
	blocks := a.layout.blocksFor(n)
	if blocks == 0 {
		return extent{}
	}
	e := extent{start: uint16(min(a.next, 0xFFFF)), count: uint16(min(blocks, 0xFFFF))}
	a.next += blocks
	return e
}

func (a *allocator) fork(n int) fork {
	e := a.take(n)
	return fork{
		logical:  uint32(n),
		physical: uint32(e.count) * a.layout.allocBlockSize,
		extent:   e,
	}
}
