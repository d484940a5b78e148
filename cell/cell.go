package cell

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/lunfardo314/cellabi/util/lines"
	"github.com/minio/sha256-simd"
)

const (
	MaxBits = 1023
	MaxRefs = 4
)

type (
	// Cell is immutable once created. Children are shared by pointer
	Cell struct {
		bits BitString
		refs []*Cell

		once  sync.Once
		hash  Hash
		depth uint16
	}

	Hash [32]byte
)

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) StringShort() string {
	return hex.EncodeToString(h[:4])
}

// New creates cell from bits and references, checking capacity
func New(bits BitString, refs ...*Cell) (*Cell, error) {
	if bits.Len() > MaxBits {
		return nil, fmt.Errorf("%w: %d bits", ErrCapacityExceeded, bits.Len())
	}
	if len(refs) > MaxRefs {
		return nil, fmt.Errorf("%w: %d references", ErrTooManyReferences, len(refs))
	}
	for _, r := range refs {
		if r == nil {
			return nil, fmt.Errorf("cell.New: nil reference")
		}
	}
	return &Cell{
		bits: bits,
		refs: append([]*Cell(nil), refs...),
	}, nil
}

func MustNew(bits BitString, refs ...*Cell) *Cell {
	ret, err := New(bits, refs...)
	if err != nil {
		panic(err)
	}
	return ret
}

func Empty() *Cell {
	return &Cell{}
}

func (c *Cell) Bits() BitString {
	return c.bits
}

func (c *Cell) BitsLen() int {
	return c.bits.Len()
}

func (c *Cell) RefsLen() int {
	return len(c.refs)
}

func (c *Cell) Ref(i int) *Cell {
	return c.refs[i]
}

func (c *Cell) Refs() []*Cell {
	return append([]*Cell(nil), c.refs...)
}

func (c *Cell) IsEmpty() bool {
	return c.bits.Len() == 0 && len(c.refs) == 0
}

// Descriptors returns d1 (number of references of an ordinary cell) and d2 (floor(b/8)+ceil(b/8))
func (c *Cell) Descriptors() (byte, byte) {
	b := c.bits.Len()
	return byte(len(c.refs)), byte(b/8 + (b+7)/8)
}

func (c *Cell) Hash() Hash {
	c.calcHash()
	return c.hash
}

func (c *Cell) Depth() uint16 {
	c.calcHash()
	return c.depth
}

func (c *Cell) calcHash() {
	c.once.Do(func() {
		d1, d2 := c.Descriptors()
		h := sha256.New()
		h.Write([]byte{d1, d2})
		h.Write(c.bits.PaddedBytes())

		var depthBytes [2]byte
		for _, r := range c.refs {
			d := r.Depth()
			if d+1 > c.depth {
				c.depth = d + 1
			}
			binary.BigEndian.PutUint16(depthBytes[:], d)
			h.Write(depthBytes[:])
		}
		for _, r := range c.refs {
			rh := r.Hash()
			h.Write(rh[:])
		}
		copy(c.hash[:], h.Sum(nil))
	})
}

func (c *Cell) Equal(other *Cell) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.Hash() == other.Hash()
}

func (c *Cell) BeginParse() *Slice {
	return &Slice{c: c}
}

// ToBuilder returns a new builder holding a copy of the cell content
func (c *Cell) ToBuilder() *Builder {
	return &Builder{
		bits: c.bits,
		refs: append([]*Cell(nil), c.refs...),
	}
}

// Lines dumps the tree, one cell per line
func (c *Cell) Lines(prefix ...string) *lines.Lines {
	ln := lines.New(prefix...)
	c.dump(ln, 0)
	return ln
}

func (c *Cell) dump(ln *lines.Lines, indent int) {
	ln.Add("%*s%d[%s] refs: %d, hash: %s", indent*2, "", c.bits.Len(), hex.EncodeToString(c.bits.Bytes()), len(c.refs), c.Hash().StringShort())
	for _, r := range c.refs {
		r.dump(ln, indent+1)
	}
}

func (c *Cell) String() string {
	return c.Lines().String()
}
