package cell

import (
	"fmt"
	"math/big"
)

// Slice is a read cursor over a cell. Reads only move forward
type Slice struct {
	c   *Cell
	pos int
	ref int
}

func (s *Slice) Cell() *Cell {
	return s.c
}

func (s *Slice) Clone() *Slice {
	ret := *s
	return &ret
}

func (s *Slice) RemainingBits() int {
	return s.c.bits.Len() - s.pos
}

func (s *Slice) RemainingRefs() int {
	return len(s.c.refs) - s.ref
}

func (s *Slice) IsEmpty() bool {
	return s.RemainingBits() == 0 && s.RemainingRefs() == 0
}

func (s *Slice) ReadBits(n int) (BitString, error) {
	if n < 0 || n > s.RemainingBits() {
		return BitString{}, fmt.Errorf("%w: %d bits requested, %d remaining", ErrUnderrun, n, s.RemainingBits())
	}
	ret := s.c.bits.Slice(s.pos, s.pos+n)
	s.pos += n
	return ret, nil
}

func (s *Slice) ReadBit() (bool, error) {
	if s.RemainingBits() < 1 {
		return false, fmt.Errorf("%w: 1 bit requested, 0 remaining", ErrUnderrun)
	}
	ret := s.c.bits.Bit(s.pos)
	s.pos++
	return ret, nil
}

// ReadUint reads big-endian unsigned integer of n <= 64 bits
func (s *Slice) ReadUint(n int) (uint64, error) {
	if n > 64 {
		return 0, fmt.Errorf("ReadUint: can't read %d bits into uint64", n)
	}
	if n > s.RemainingBits() {
		return 0, fmt.Errorf("%w: %d bits requested, %d remaining", ErrUnderrun, n, s.RemainingBits())
	}
	ret := s.c.bits.Uint(s.pos, n)
	s.pos += n
	return ret, nil
}

func (s *Slice) ReadBigUint(n int) (*big.Int, error) {
	bits, err := s.ReadBits(n)
	if err != nil {
		return nil, err
	}
	return bits.BigUint(), nil
}

func (s *Slice) ReadNextCell() (*Cell, error) {
	if s.RemainingRefs() == 0 {
		return nil, ErrNoReferenceAvailable
	}
	ret := s.c.refs[s.ref]
	s.ref++
	return ret, nil
}

// ReadNextReference returns slice over the next referenced cell
func (s *Slice) ReadNextReference() (*Slice, error) {
	c, err := s.ReadNextCell()
	if err != nil {
		return nil, err
	}
	return c.BeginParse(), nil
}
