package hfs

import (
	"encoding/binary"
	"fmt"
)

const (
	mdbSignature      = 0x4244 // 'BD'
	mdbOffset         = 2 * SectorSize
	attrUnmounted     = 0x0100
	extentRecordCount = 3
)

type extent struct {
	start uint16
	count uint16
}

// extentRecord encodes three extent descriptors, the first one used.
func extentRecord(e extent) []byte {
	b := make([]byte, 4*extentRecordCount)
	binary.BigEndian.PutUint16(b[0:], e.start)
	binary.BigEndian.PutUint16(b[2:], e.count)
	return b
}

func parseExtent(b []byte) extent {
	return extent{
		start: binary.BigEndian.Uint16(b[0:]),
		count: binary.BigEndian.Uint16(b[2:]),
	}
}

// mdb is the master directory block.
type mdb struct {
	created        uint32
	modified       uint32
	attributes     uint16
	rootFiles      uint16
	bitmapStart    uint16
	allocPtr       uint16
	allocBlocks    uint16
	allocBlockSize uint32
	clumpSize      uint32
	allocStart     uint16
	nextCNID       uint32
	freeBlocks     uint16
	name           []byte
	xtClumpSize    uint32
	ctClumpSize    uint32
	fileCount      uint32
	dirCount       uint32
	xtSize         uint32
	xtExtent       extent
	ctSize         uint32
	ctExtent       extent
}

func (m *mdb) bytes() []byte {
	b := make([]byte, SectorSize)
	be := binary.BigEndian
	be.PutUint16(b[0:], mdbSignature)
	be.PutUint32(b[2:], m.created)
	be.PutUint32(b[6:], m.modified)
	be.PutUint16(b[10:], m.attributes)
	be.PutUint16(b[12:], m.rootFiles)
	be.PutUint16(b[14:], m.bitmapStart)
	be.PutUint16(b[16:], m.allocPtr)
	be.PutUint16(b[18:], m.allocBlocks)
	be.PutUint32(b[20:], m.allocBlockSize)
	be.PutUint32(b[24:], m.clumpSize)
	be.PutUint16(b[28:], m.allocStart)
	be.PutUint32(b[30:], m.nextCNID)
	be.PutUint16(b[34:], m.freeBlocks)
	b[36] = byte(len(m.name))
	copy(b[37:64], m.name)
	// drVolBkUp, drVSeqNum and drWrCnt stay zero.
	be.PutUint32(b[74:], m.xtClumpSize)
	be.PutUint32(b[78:], m.ctClumpSize)
	be.PutUint16(b[82:], 0) // drNmRtDirs
	be.PutUint32(b[84:], m.fileCount)
	be.PutUint32(b[88:], m.dirCount)
	// drFndrInfo (92..124) and the embedded volume fields stay zero.
	be.PutUint32(b[130:], m.xtSize)
	copy(b[134:146], extentRecord(m.xtExtent))
	be.PutUint32(b[146:], m.ctSize)
	copy(b[150:162], extentRecord(m.ctExtent))
	return b
}

func parseMDB(b []byte) (*mdb, error) {
	if len(b) < 162 {
		return nil, fmt.Errorf("%w: short master directory block", ErrCorrupt)
	}
	be := binary.BigEndian
	if sig := be.Uint16(b[0:]); sig != mdbSignature {
		return nil, fmt.Errorf("%w: bad signature %#04x", ErrCorrupt, sig)
	}
	nameLen := int(b[36])
	if nameLen > maxVolumeNameLen {
		return nil, fmt.Errorf("%w: volume name length %d", ErrCorrupt, nameLen)
	}
	m := &mdb{
		created:        be.Uint32(b[2:]),
		modified:       be.Uint32(b[6:]),
		attributes:     be.Uint16(b[10:]),
		rootFiles:      be.Uint16(b[12:]),
		bitmapStart:    be.Uint16(b[14:]),
		allocPtr:       be.Uint16(b[16:]),
		allocBlocks:    be.Uint16(b[18:]),
		allocBlockSize: be.Uint32(b[20:]),
		clumpSize:      be.Uint32(b[24:]),
		allocStart:     be.Uint16(b[28:]),
		nextCNID:       be.Uint32(b[30:]),
		freeBlocks:     be.Uint16(b[34:]),
		name:           append([]byte(nil), b[37:37+nameLen]...),
		xtClumpSize:    be.Uint32(b[74:]),
		ctClumpSize:    be.Uint32(b[78:]),
		fileCount:      be.Uint32(b[84:]),
		dirCount:       be.Uint32(b[88:]),
		xtSize:         be.Uint32(b[130:]),
		xtExtent:       parseExtent(b[134:]),
		ctSize:         be.Uint32(b[146:]),
		ctExtent:       parseExtent(b[150:]),
	}
	if m.allocBlockSize == 0 || m.allocBlockSize%SectorSize != 0 {
		return nil, fmt.Errorf("%w: allocation block size %d", ErrCorrupt, m.allocBlockSize)
	}
	return m, nil
}
