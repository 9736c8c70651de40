// Package hfs builds and reads flat HFS volumes: a single root directory
// holding files tagged with classic Finder type and creator codes.
//
// Only what a seed floppy needs is supported. There are no subfolders,
// every fork occupies exactly one extent and the extents overflow tree is
// always empty.
package hfs

import (
	"errors"
	"time"
)

var (
	ErrFormat   = errors.New("malformed volume metadata")
	ErrCapacity = errors.New("volume capacity exceeded")
	ErrGeometry = errors.New("unsupported media geometry")
	ErrCorrupt  = errors.New("not a readable HFS volume")
)

// Finder flags stored in FInfo.fdFlags.
const (
	FlagInvisible  uint16 = 0x4000
	FlagHasBundle  uint16 = 0x2000
	FlagNameLocked uint16 = 0x1000
)

// File is one file destined for a volume. Type and Creator are classic
// four-character codes and must be exactly four bytes long.
type File struct {
	Data    []byte
	Rsrc    []byte
	Type    string
	Creator string
	Flags   uint16

	// Zero times are replaced by the render time.
	Created  time.Time
	Modified time.Time
}

type entry struct {
	name string
	file *File
}

// Volume is an in-memory volume. Entries are laid out on disk in the
// order they were first added.
type Volume struct {
	Name    string
	entries []entry
}

// NewVolume returns an empty volume with the given name.
func NewVolume(name string) *Volume {
	return &Volume{Name: name}
}

// Set adds a file under name. Replacing an existing name keeps its
// original position.
func (v *Volume) Set(name string, f *File) {
	for i := range v.entries {
		if v.entries[i].name == name {
			v.entries[i].file = f
			return
		}
	}
	v.entries = append(v.entries, entry{name: name, file: f})
}

// Get returns the file stored under name.
func (v *Volume) Get(name string) (*File, bool) {
	for _, e := range v.entries {
		if e.name == name {
			return e.file, true
		}
	}
	return nil, false
}

// Names returns the entry names in insertion order.
func (v *Volume) Names() []string {
	names := make([]string, len(v.entries))
	for i, e := range v.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of entries.
func (v *Volume) Len() int {
	return len(v.entries)
}
