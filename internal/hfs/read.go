package hfs

import (
	"fmt"
	"sort"
)

// Extent is a run of allocation blocks.
type Extent struct {
	Start uint16
	Count uint16
}

// Entry is a file found on a rendered volume.
type Entry struct {
	Name       string
	CNID       uint32
	File       *File
	DataExtent Extent
	RsrcExtent Extent
}

// Image describes a volume parsed by Read.
type Image struct {
	Name           string
	AllocBlockSize uint32
	AllocBlocks    uint16
	FreeBlocks     uint16
	// Entries are ordered by CNID, which is insertion order for volumes
	// written by Render.
	Entries []Entry
}

// Entry returns the entry with the given name.
func (img *Image) Entry(name string) (Entry, bool) {
	for _, e := range img.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Read parses a flat volume: the root directory's files and the first
// extent of each fork.
func Read(image []byte) (*Image, error) {
	if len(image) < mdbOffset+SectorSize {
		return nil, fmt.Errorf("%w: image is %d bytes", ErrCorrupt, len(image))
	}
	m, err := parseMDB(image[mdbOffset : mdbOffset+SectorSize])
	if err != nil {
		return nil, err
	}
	l := layout{allocStart: m.allocStart, allocBlockSize: m.allocBlockSize}

	catalog, err := slice(image, l.offset(m.ctExtent.start), int64(m.ctSize))
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	records, err := leafRecords(catalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	out := &Image{
		Name:           decodeName(m.name),
		AllocBlockSize: m.allocBlockSize,
		AllocBlocks:    m.allocBlocks,
		FreeBlocks:     m.freeBlocks,
	}
	for _, r := range records {
		parent, name, err := parseCatalogKey(r.key)
		if err != nil {
			return nil, err
		}
		if parent != rootFolderID || len(r.data) == 0 || r.data[0] != recFile {
			continue
		}
		rec, err := parseFileRecord(r.data)
		if err != nil {
			return nil, err
		}
		data, err := slice(image, l.offset(rec.data.extent.start), int64(rec.data.logical))
		if err != nil {
			return nil, fmt.Errorf("%q data fork: %w", decodeName(name), err)
		}
		rsrc, err := slice(image, l.offset(rec.rsrc.extent.start), int64(rec.rsrc.logical))
		if err != nil {
			return nil, fmt.Errorf("%q resource fork: %w", decodeName(name), err)
		}
		out.Entries = append(out.Entries, Entry{
			Name: decodeName(name),
			CNID: rec.id,
			File: &File{
				Data:     data,
				Rsrc:     rsrc,
				Type:     string(rec.typ[:]),
				Creator:  string(rec.creator[:]),
				Flags:    rec.flags,
				Created:  fromMacTime(rec.created),
				Modified: fromMacTime(rec.modified),
			},
			DataExtent: Extent{Start: rec.data.extent.start, Count: rec.data.extent.count},
			RsrcExtent: Extent{Start: rec.rsrc.extent.start, Count: rec.rsrc.extent.count},
		})
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].CNID < out.Entries[j].CNID })
	return out, nil
}

// slice returns a copy of image[off:off+n] after bounds checks.
func slice(image []byte, off, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if off < 0 || n < 0 || off+n > int64(len(image)) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d outside image", ErrCorrupt, n, off)
	}
	return append([]byte(nil), image[off:off+n]...), nil
}
