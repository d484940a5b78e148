package cell

import (
	"fmt"
)

// Builder accumulates bits and references of a future cell. Bits and references can be
// appended or prepended. Builder is owned by a single goroutine
type Builder struct {
	bits      BitString
	refs      []*Cell
	finalized bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) BitsLen() int {
	return b.bits.Len()
}

func (b *Builder) RefsLen() int {
	return len(b.refs)
}

func (b *Builder) BitsFree() int {
	return MaxBits - b.bits.Len()
}

func (b *Builder) RefsFree() int {
	return MaxRefs - len(b.refs)
}

func (b *Builder) IsFinalized() bool {
	return b.finalized
}

// Clone returns independent copy of the builder
func (b *Builder) Clone() *Builder {
	return &Builder{
		bits:      b.bits,
		refs:      append([]*Cell(nil), b.refs...),
		finalized: b.finalized,
	}
}

func (b *Builder) checkBits(n int) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	if n > b.BitsFree() {
		return fmt.Errorf("%w: %d bits requested, %d free", ErrCapacityExceeded, n, b.BitsFree())
	}
	return nil
}

func (b *Builder) checkRef(c *Cell) error {
	if b.finalized {
		return ErrBuilderFinalized
	}
	if c == nil {
		return fmt.Errorf("Builder: nil reference")
	}
	if b.RefsFree() == 0 {
		return ErrTooManyReferences
	}
	return nil
}

func (b *Builder) AppendBits(bits BitString) error {
	if err := b.checkBits(bits.Len()); err != nil {
		return err
	}
	b.bits = b.bits.Concat(bits)
	return nil
}

func (b *Builder) PrependBits(bits BitString) error {
	if err := b.checkBits(bits.Len()); err != nil {
		return err
	}
	b.bits = bits.Concat(b.bits)
	return nil
}

// AppendRaw appends first n bits of data
func (b *Builder) AppendRaw(data []byte, n int) error {
	bits, err := NewBitString(data, n)
	if err != nil {
		return err
	}
	return b.AppendBits(bits)
}

// PrependRaw prepends first n bits of data
func (b *Builder) PrependRaw(data []byte, n int) error {
	bits, err := NewBitString(data, n)
	if err != nil {
		return err
	}
	return b.PrependBits(bits)
}

func (b *Builder) AppendBit(bit bool) error {
	var w BitWriter
	w.WriteBit(bit)
	return b.AppendBits(w.BitString())
}

func (b *Builder) AppendUint(v uint64, nbits int) error {
	return b.AppendBits(UintBits(v, nbits))
}

func (b *Builder) PrependUint(v uint64, nbits int) error {
	return b.PrependBits(UintBits(v, nbits))
}

func (b *Builder) AppendReference(c *Cell) error {
	if err := b.checkRef(c); err != nil {
		return err
	}
	b.refs = append(b.refs, c)
	return nil
}

func (b *Builder) PrependReference(c *Cell) error {
	if err := b.checkRef(c); err != nil {
		return err
	}
	b.refs = append([]*Cell{c}, b.refs...)
	return nil
}

// Finalize produces the cell. The builder can't be used afterward
func (b *Builder) Finalize() (*Cell, error) {
	if b.finalized {
		return nil, ErrBuilderFinalized
	}
	b.finalized = true
	return &Cell{bits: b.bits, refs: b.refs}, nil
}

func (b *Builder) MustFinalize() *Cell {
	ret, err := b.Finalize()
	if err != nil {
		panic(err)
	}
	return ret
}
