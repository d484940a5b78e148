// Package boc implements the bag-of-cells binary format of cell trees
package boc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/dominikbraun/graph"
	"github.com/lunfardo314/cellabi/cell"
)

const magic = 0xb5ee9c72

var (
	ErrBadMagic     = errors.New("boc: wrong magic prefix")
	ErrMalformedBOC = errors.New("boc: malformed")
	ErrCRCMismatch  = errors.New("boc: crc32c mismatch")

	crcTable = crc32.MakeTable(crc32.Castagnoli)
)

type (
	Options struct {
		WithCRC32C bool
		WithIndex  bool
	}

	Option func(o *Options)
)

func defaultOptions() *Options {
	return &Options{WithCRC32C: true}
}

func WithCRC32C(on bool) Option {
	return func(o *Options) {
		o.WithCRC32C = on
	}
}

func WithIndex(on bool) Option {
	return func(o *Options) {
		o.WithIndex = on
	}
}

// order returns cells parents first. Cells are deduplicated by hash, ties are resolved by breadth-first discovery
func order(roots []*cell.Cell) ([]*cell.Cell, map[cell.Hash]int, error) {
	gr, discovered, err := cell.TreeGraph(roots...)
	if err != nil {
		return nil, nil, err
	}
	rank := make(map[string]int, len(discovered))
	for i, h := range discovered {
		rank[h] = i
	}
	sorted, err := graph.StableTopologicalSort(gr, func(a, b string) bool {
		return rank[a] < rank[b]
	})
	if err != nil {
		return nil, nil, err
	}
	ret := make([]*cell.Cell, len(sorted))
	idx := make(map[cell.Hash]int, len(sorted))
	for i, h := range sorted {
		if ret[i], err = gr.Vertex(h); err != nil {
			return nil, nil, err
		}
		idx[ret[i].Hash()] = i
	}
	return ret, idx, nil
}

func bytesFor(v int) int {
	ret := 1
	for v >= 1<<(8*ret) {
		ret++
	}
	return ret
}

func putUint(buf *bytes.Buffer, v uint64, size int) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[8-size:])
}

func serializedCellSize(c *cell.Cell, refSize int) int {
	return 2 + (c.BitsLen()+7)/8 + c.RefsLen()*refSize
}

// Serialize serializes one or more root cells with shared subtrees deduplicated
func Serialize(roots []*cell.Cell, opts ...Option) ([]byte, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("boc.Serialize: no roots")
	}
	cells, idx, err := order(roots)
	if err != nil {
		return nil, err
	}
	refSize := bytesFor(len(cells))
	if refSize > 4 {
		return nil, fmt.Errorf("boc.Serialize: too many cells")
	}
	totSize := 0
	offsets := make([]int, len(cells))
	for i, c := range cells {
		totSize += serializedCellSize(c, refSize)
		offsets[i] = totSize
	}
	offSize := bytesFor(totSize)

	var buf bytes.Buffer
	putUint(&buf, magic, 4)
	var flags byte
	if cfg.WithIndex {
		flags |= 0x80
	}
	if cfg.WithCRC32C {
		flags |= 0x40
	}
	buf.WriteByte(flags | byte(refSize))
	buf.WriteByte(byte(offSize))
	putUint(&buf, uint64(len(cells)), refSize)
	putUint(&buf, uint64(len(roots)), refSize)
	putUint(&buf, 0, refSize)
	putUint(&buf, uint64(totSize), offSize)
	for _, r := range roots {
		putUint(&buf, uint64(idx[r.Hash()]), refSize)
	}
	if cfg.WithIndex {
		for _, off := range offsets {
			putUint(&buf, uint64(off), offSize)
		}
	}
	for _, c := range cells {
		d1, d2 := c.Descriptors()
		buf.WriteByte(d1)
		buf.WriteByte(d2)
		buf.Write(c.Bits().PaddedBytes())
		for i := 0; i < c.RefsLen(); i++ {
			putUint(&buf, uint64(idx[c.Ref(i).Hash()]), refSize)
		}
	}
	if cfg.WithCRC32C {
		var crc [4]byte
		binary.LittleEndian.PutUint32(crc[:], crc32.Checksum(buf.Bytes(), crcTable))
		buf.Write(crc[:])
	}
	return buf.Bytes(), nil
}

func SerializeSingleRoot(root *cell.Cell, opts ...Option) ([]byte, error) {
	return Serialize([]*cell.Cell{root}, opts...)
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) uint(size int) (uint64, error) {
	if r.pos+size > len(r.data) {
		return 0, fmt.Errorf("%w: unexpected end of data", ErrMalformedBOC)
	}
	var ret uint64
	for _, b := range r.data[r.pos : r.pos+size] {
		ret = ret<<8 | uint64(b)
	}
	r.pos += size
	return ret, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: unexpected end of data", ErrMalformedBOC)
	}
	ret := r.data[r.pos : r.pos+n]
	r.pos += n
	return ret, nil
}

type rawCell struct {
	bits cell.BitString
	refs []int
}

// Deserialize parses bag of cells and returns its roots
func Deserialize(data []byte) ([]*cell.Cell, error) {
	r := &reader{data: data}
	m, err := r.uint(4)
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, ErrBadMagic
	}
	flags, err := r.uint(1)
	if err != nil {
		return nil, err
	}
	hasIdx := flags&0x80 != 0
	hasCRC := flags&0x40 != 0
	refSize := int(flags & 0x07)
	if flags&0x18 != 0 || refSize < 1 || refSize > 4 {
		return nil, fmt.Errorf("%w: wrong flags byte %02x", ErrMalformedBOC, flags)
	}
	if hasCRC {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: too short", ErrMalformedBOC)
		}
		body := data[:len(data)-4]
		if crc32.Checksum(body, crcTable) != binary.LittleEndian.Uint32(data[len(data)-4:]) {
			return nil, ErrCRCMismatch
		}
		r.data = body
	}
	offSize64, err := r.uint(1)
	if err != nil {
		return nil, err
	}
	offSize := int(offSize64)
	if offSize < 1 || offSize > 8 {
		return nil, fmt.Errorf("%w: wrong offset size %d", ErrMalformedBOC, offSize)
	}
	var hdr [3]uint64
	for i := range hdr {
		if hdr[i], err = r.uint(refSize); err != nil {
			return nil, err
		}
	}
	numCells, numRoots, absent := int(hdr[0]), int(hdr[1]), int(hdr[2])
	if numRoots < 1 || absent != 0 || numRoots > numCells {
		return nil, fmt.Errorf("%w: cells: %d, roots: %d, absent: %d", ErrMalformedBOC, numCells, numRoots, absent)
	}
	// each cell record takes at least 2 bytes, each root index refSize bytes
	if remaining := len(r.data) - r.pos; numCells > remaining/2 || numRoots > remaining/refSize {
		return nil, fmt.Errorf("%w: %d cells and %d roots don't fit %d bytes", ErrMalformedBOC, numCells, numRoots, remaining)
	}
	totSize, err := r.uint(offSize)
	if err != nil {
		return nil, err
	}
	if totSize > uint64(len(r.data)-r.pos) {
		return nil, fmt.Errorf("%w: total cells size %d exceeds data", ErrMalformedBOC, totSize)
	}
	rootIdx := make([]int, numRoots)
	for i := range rootIdx {
		v, err := r.uint(refSize)
		if err != nil {
			return nil, err
		}
		if int(v) >= numCells {
			return nil, fmt.Errorf("%w: root index %d out of range", ErrMalformedBOC, v)
		}
		rootIdx[i] = int(v)
	}
	if hasIdx {
		if _, err = r.bytes(numCells * offSize); err != nil {
			return nil, err
		}
	}
	cellsStart := r.pos
	raw := make([]rawCell, numCells)
	for i := range raw {
		if raw[i], err = readCell(r, i, numCells, refSize); err != nil {
			return nil, err
		}
	}
	if uint64(r.pos-cellsStart) != totSize {
		return nil, fmt.Errorf("%w: total cells size %d, expected %d", ErrMalformedBOC, r.pos-cellsStart, totSize)
	}
	if r.pos != len(r.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedBOC, len(r.data)-r.pos)
	}

	// references always point forward, so cells are built from the last one
	cells := make([]*cell.Cell, numCells)
	for i := numCells - 1; i >= 0; i-- {
		refs := make([]*cell.Cell, len(raw[i].refs))
		for j, ri := range raw[i].refs {
			refs[j] = cells[ri]
		}
		if cells[i], err = cell.New(raw[i].bits, refs...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBOC, err)
		}
	}
	ret := make([]*cell.Cell, numRoots)
	for i, ri := range rootIdx {
		ret[i] = cells[ri]
	}
	return ret, nil
}

func readCell(r *reader, i, numCells, refSize int) (rawCell, error) {
	d, err := r.bytes(2)
	if err != nil {
		return rawCell{}, err
	}
	d1, d2 := d[0], d[1]
	numRefs := int(d1 & 0x07)
	if d1&0xf8 != 0 || numRefs > cell.MaxRefs {
		return rawCell{}, fmt.Errorf("%w: unsupported cell descriptor %02x in cell %d", ErrMalformedBOC, d1, i)
	}
	dataLen := (int(d2) + 1) / 2
	payload, err := r.bytes(dataLen)
	if err != nil {
		return rawCell{}, err
	}
	bits, err := cell.BitStringFromPadded(payload, d2%2 == 1)
	if err != nil {
		return rawCell{}, fmt.Errorf("%w: cell %d: %v", ErrMalformedBOC, i, err)
	}
	refs := make([]int, numRefs)
	for j := range refs {
		v, err := r.uint(refSize)
		if err != nil {
			return rawCell{}, err
		}
		if int(v) <= i || int(v) >= numCells {
			return rawCell{}, fmt.Errorf("%w: cell %d references cell %d", ErrMalformedBOC, i, v)
		}
		refs[j] = int(v)
	}
	return rawCell{bits: bits, refs: refs}, nil
}

// DeserializeSingleRoot requires exactly one root
func DeserializeSingleRoot(data []byte) (*cell.Cell, error) {
	roots, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: expected 1 root, got %d", ErrMalformedBOC, len(roots))
	}
	return roots[0], nil
}
