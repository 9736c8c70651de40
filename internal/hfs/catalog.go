package hfs

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Catalog node IDs.
const (
	rootParentID = 1
	rootFolderID = 2
	firstUserID  = 16
)

// Catalog data record types.
const (
	recDirectory  byte = 1
	recFile       byte = 2
	recDirThread  byte = 3
	recFileThread byte = 4
)

const (
	catalogMaxKeyLen = 37
	extentsMaxKeyLen = 7

	dirRecordSize    = 70
	fileRecordSize   = 102
	threadRecordSize = 46
)

func catalogKey(parent uint32, name []byte) []byte {
	key := make([]byte, 0, 6+len(name))
	key = append(key, 0)
	key = binary.BigEndian.AppendUint32(key, parent)
	key = append(key, byte(len(name)))
	return append(key, name...)
}

func parseCatalogKey(key []byte) (parent uint32, name []byte, err error) {
	if len(key) < 6 || len(key) < 6+int(key[5]) {
		return 0, nil, fmt.Errorf("%w: catalog key of %d bytes", ErrCorrupt, len(key))
	}
	return binary.BigEndian.Uint32(key[1:]), key[6 : 6+int(key[5])], nil
}

func sortCatalog(records []btreeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		pi, ni, _ := parseCatalogKey(records[i].key)
		pj, nj, _ := parseCatalogKey(records[j].key)
		if pi != pj {
			return pi < pj
		}
		return compareNames(ni, nj) < 0
	})
}

func dirRecord(id uint32, valence uint16, created, modified uint32) []byte {
	b := make([]byte, dirRecordSize)
	be := binary.BigEndian
	b[0] = recDirectory
	be.PutUint16(b[4:], valence)
	be.PutUint32(b[6:], id)
	be.PutUint32(b[10:], created)
	be.PutUint32(b[14:], modified)
	return b
}

func threadRecord(kind byte, parent uint32, name []byte) []byte {
	b := make([]byte, threadRecordSize)
	b[0] = kind
	binary.BigEndian.PutUint32(b[10:], parent)
	b[14] = byte(len(name))
	copy(b[15:], name)
	return b
}

type fork struct {
	logical  uint32
	physical uint32
	extent   extent
}

// fileRecord is the catalog view of one file.
type fileRecord struct {
	id       uint32
	typ      [4]byte
	creator  [4]byte
	flags    uint16
	data     fork
	rsrc     fork
	created  uint32
	modified uint32
}

func (f fileRecord) bytes() []byte {
	b := make([]byte, fileRecordSize)
	be := binary.BigEndian
	b[0] = recFile
	copy(b[4:], f.typ[:])
	copy(b[8:], f.creator[:])
	be.PutUint16(b[12:], f.flags)
	be.PutUint32(b[20:], f.id)
	be.PutUint16(b[24:], f.data.extent.start)
	be.PutUint32(b[26:], f.data.logical)
	be.PutUint32(b[30:], f.data.physical)
	be.PutUint16(b[34:], f.rsrc.extent.start)
	be.PutUint32(b[36:], f.rsrc.logical)
	be.PutUint32(b[40:], f.rsrc.physical)
	be.PutUint32(b[44:], f.created)
	be.PutUint32(b[48:], f.modified)
	copy(b[74:86], extentRecord(f.data.extent))
	copy(b[86:98], extentRecord(f.rsrc.extent))
	return b
}

func parseFileRecord(b []byte) (fileRecord, error) {
	if len(b) < fileRecordSize || b[0] != recFile {
		return fileRecord{}, fmt.Errorf("%w: bad file record", ErrCorrupt)
	}
	be := binary.BigEndian
	f := fileRecord{
		flags:    be.Uint16(b[12:]),
		id:       be.Uint32(b[20:]),
		created:  be.Uint32(b[44:]),
		modified: be.Uint32(b[48:]),
		data: fork{
			logical:  be.Uint32(b[26:]),
			physical: be.Uint32(b[30:]),
			extent:   parseExtent(b[74:]),
		},
		rsrc: fork{
			logical:  be.Uint32(b[36:]),
			physical: be.Uint32(b[40:]),
			extent:   parseExtent(b[86:]),
		},
	}
	copy(f.typ[:], b[4:8])
	copy(f.creator[:], b[8:12])
	return f, nil
}

// catalogRecords builds the sorted leaf records of a flat volume.
func catalogRecords(volName []byte, files []*placedFile, created, modified uint32) []btreeRecord {
	records := []btreeRecord{
		{key: catalogKey(rootParentID, volName), data: dirRecord(rootFolderID, uint16(len(files)), created, modified)},
		{key: catalogKey(rootFolderID, nil), data: threadRecord(recDirThread, rootParentID, volName)},
	}
	for _, f := range files {
		records = append(records, btreeRecord{key: catalogKey(rootFolderID, f.name), data: f.record.bytes()})
	}
	sortCatalog(records)
	return records
}
