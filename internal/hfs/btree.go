package hfs

import (
	"encoding/binary"
	"fmt"
)

const (
	nodeSize       = 512
	nodeDescSize   = 14
	headerRecSize  = 106
	userRecSize    = 128
	mapRecSize     = nodeSize - nodeDescSize - headerRecSize - userRecSize - 8
	maxMappedNodes = mapRecSize * 8
)

// Node kinds (ndType).
const (
	kindIndex  byte = 0x00
	kindHeader byte = 0x01
	kindLeaf   byte = 0xFF
)

// btreeRecord is a leaf record; key excludes its length byte.
type btreeRecord struct {
	key  []byte
	data []byte
}

type btreeNode struct {
	num      uint32
	kind     byte
	height   byte
	flink    uint32
	blink    uint32
	records  [][]byte
	firstKey []byte
}

func (n *btreeNode) used() int {
	size := nodeDescSize + 2 // free-space offset
	for _, r := range n.records {
		size += len(r) + 2
	}
	return size
}

func (n *btreeNode) fits(rec []byte) bool {
	return n.used()+len(rec)+2 <= nodeSize
}

func (n *btreeNode) bytes() []byte {
	return encodeNode(n.kind, n.height, n.flink, n.blink, n.records)
}

func encodeNode(kind, height byte, flink, blink uint32, records [][]byte) []byte {
	b := make([]byte, nodeSize)
	be := binary.BigEndian
	be.PutUint32(b[0:], flink)
	be.PutUint32(b[4:], blink)
	b[8] = kind
	b[9] = height
	be.PutUint16(b[10:], uint16(len(records)))
	off := nodeDescSize
	for i, r := range records {
		be.PutUint16(b[nodeSize-2*(i+1):], uint16(off))
		copy(b[off:], r)
		off += len(r)
	}
	be.PutUint16(b[nodeSize-2*(len(records)+1):], uint16(off))
	return b
}

func leafRecord(key, data []byte) []byte {
	rec := make([]byte, 0, 2+len(key)+len(data))
	rec = append(rec, byte(len(key)))
	rec = append(rec, key...)
	if len(rec)%2 != 0 {
		rec = append(rec, 0)
	}
	return append(rec, data...)
}

// indexRecord pads the key to the tree's fixed index key length.
func indexRecord(key []byte, maxKeyLen int, child uint32) []byte {
	rec := make([]byte, 1+maxKeyLen, 2+maxKeyLen+4)
	rec[0] = byte(maxKeyLen)
	copy(rec[1:], key)
	if len(rec)%2 != 0 {
		rec = append(rec, 0)
	}
	return binary.BigEndian.AppendUint32(rec, child)
}

// buildBTree lays out sorted leaf records as a B*-tree file with at
// least minNodes nodes. Node 0 is the header node.
func buildBTree(records []btreeRecord, maxKeyLen int, minNodes int) ([]byte, error) {
	var all []*btreeNode
	newNode := func(kind, height byte) *btreeNode {
		n := &btreeNode{num: uint32(len(all) + 1), kind: kind, height: height}
		all = append(all, n)
		return n
	}

	var leaves []*btreeNode
	var cur *btreeNode
	for _, r := range records {
		rec := leafRecord(r.key, r.data)
		if nodeDescSize+len(rec)+4 > nodeSize {
			return nil, fmt.Errorf("%w: catalog record of %d bytes", ErrCapacity, len(rec))
		}
		if cur == nil || !cur.fits(rec) {
			cur = newNode(kindLeaf, 1)
			cur.firstKey = r.key
			leaves = append(leaves, cur)
		}
		cur.records = append(cur.records, rec)
	}
	link(leaves)

	level := leaves
	for len(level) > 1 {
		var parents []*btreeNode
		var parent *btreeNode
		height := level[0].height + 1
		for _, child := range level {
			rec := indexRecord(child.firstKey, maxKeyLen, child.num)
			if parent == nil || !parent.fits(rec) {
				parent = newNode(kindIndex, height)
				parent.firstKey = child.firstKey
				parents = append(parents, parent)
			}
			parent.records = append(parent.records, rec)
		}
		link(parents)
		level = parents
	}

	total := max(len(all)+1, minNodes)
	if total > maxMappedNodes {
		return nil, fmt.Errorf("%w: B-tree needs %d nodes", ErrCapacity, total)
	}

	hdr := btreeHeader{
		nodeSize:  nodeSize,
		maxKeyLen: uint16(maxKeyLen),
		nodes:     uint32(total),
		free:      uint32(total - len(all) - 1),
		records:   uint32(len(records)),
	}
	if len(level) == 1 {
		root := level[0]
		hdr.depth = uint16(root.height)
		hdr.root = root.num
		hdr.firstLeaf = leaves[0].num
		hdr.lastLeaf = leaves[len(leaves)-1].num
	}

	out := make([]byte, total*nodeSize)
	copy(out, hdr.node(len(all)+1))
	for _, n := range all {
		copy(out[int(n.num)*nodeSize:], n.bytes())
	}
	return out, nil
}

func link(nodes []*btreeNode) {
	for i, n := range nodes {
		if i > 0 {
			n.blink = nodes[i-1].num
		}
		if i < len(nodes)-1 {
			n.flink = nodes[i+1].num
		}
	}
}

type btreeHeader struct {
	depth     uint16
	root      uint32
	records   uint32
	firstLeaf uint32
	lastLeaf  uint32
	nodeSize  uint16
	maxKeyLen uint16
	nodes     uint32
	free      uint32
}

// node encodes the header node, marking the first used nodes in the map.
func (h btreeHeader) node(used int) []byte {
	rec := make([]byte, headerRecSize)
	be := binary.BigEndian
	be.PutUint16(rec[0:], h.depth)
	be.PutUint32(rec[2:], h.root)
	be.PutUint32(rec[6:], h.records)
	be.PutUint32(rec[10:], h.firstLeaf)
	be.PutUint32(rec[14:], h.lastLeaf)
	be.PutUint16(rec[18:], h.nodeSize)
	be.PutUint16(rec[20:], h.maxKeyLen)
	be.PutUint32(rec[22:], h.nodes)
	be.PutUint32(rec[26:], h.free)

	bitmap := make([]byte, mapRecSize)
	setBits(bitmap, used)
	return encodeNode(kindHeader, 0, 0, 0, [][]byte{rec, make([]byte, userRecSize), bitmap})
}

func parseBTreeHeader(tree []byte) (btreeHeader, error) {
	if len(tree) < nodeSize || tree[8] != kindHeader {
		return btreeHeader{}, fmt.Errorf("%w: missing B-tree header node", ErrCorrupt)
	}
	rec := tree[nodeDescSize:]
	be := binary.BigEndian
	h := btreeHeader{
		depth:     be.Uint16(rec[0:]),
		root:      be.Uint32(rec[2:]),
		records:   be.Uint32(rec[6:]),
		firstLeaf: be.Uint32(rec[10:]),
		lastLeaf:  be.Uint32(rec[14:]),
		nodeSize:  be.Uint16(rec[18:]),
		maxKeyLen: be.Uint16(rec[20:]),
		nodes:     be.Uint32(rec[22:]),
		free:      be.Uint32(rec[26:]),
	}
	if h.nodeSize != nodeSize {
		return btreeHeader{}, fmt.Errorf("%w: node size %d", ErrCorrupt, h.nodeSize)
	}
	return h, nil
}

// leafRecords walks the leaf chain and returns every record in order.
func leafRecords(tree []byte) ([]btreeRecord, error) {
	h, err := parseBTreeHeader(tree)
	if err != nil {
		return nil, err
	}
	var out []btreeRecord
	seen := make(map[uint32]bool)
	for num := h.firstLeaf; num != 0; {
		if seen[num] || int(num+1)*nodeSize > len(tree) {
			return nil, fmt.Errorf("%w: bad leaf link %d", ErrCorrupt, num)
		}
		seen[num] = true
		node := tree[int(num)*nodeSize : int(num+1)*nodeSize]
		if node[8] != kindLeaf {
			return nil, fmt.Errorf("%w: node %d is not a leaf", ErrCorrupt, num)
		}
		recs, err := nodeRecords(node)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", num, err)
		}
		out = append(out, recs...)
		num = binary.BigEndian.Uint32(node[0:])
	}
	return out, nil
}

func nodeRecords(node []byte) ([]btreeRecord, error) {
	be := binary.BigEndian
	n := int(be.Uint16(node[10:]))
	if nodeDescSize+2*(n+1) > nodeSize {
		return nil, fmt.Errorf("%w: %d records", ErrCorrupt, n)
	}
	out := make([]btreeRecord, 0, n)
	for i := 0; i < n; i++ {
		start := int(be.Uint16(node[nodeSize-2*(i+1):]))
		end := int(be.Uint16(node[nodeSize-2*(i+2):]))
		if start < nodeDescSize || end > nodeSize || start >= end {
			return nil, fmt.Errorf("%w: record %d spans %d..%d", ErrCorrupt, i, start, end)
		}
		rec := node[start:end]
		keyLen := int(rec[0])
		dataStart := 1 + keyLen
		if dataStart%2 != 0 {
			dataStart++
		}
		if dataStart > len(rec) {
			return nil, fmt.Errorf("%w: record %d key overruns record", ErrCorrupt, i)
		}
		out = append(out, btreeRecord{key: rec[1 : 1+keyLen], data: rec[dataStart:]})
	}
	return out, nil
}

// setBits marks the first n bits, most significant bit first.
func setBits(bitmap []byte, n int) {
	for i := 0; i < n; i++ {
		bitmap[i/8] |= 0x80 >> (i % 8)
	}
}
