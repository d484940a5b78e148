package abi

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/lunfardo314/cellabi/cell"
)

// Values are written into the chain back to front: each write prepends to the current (front) cell.
// When the front cell can't take more, it is finalized and becomes the last reference of a new
// front cell. Thus the continuation is always the last reference of a cell.

var errGrowthNotAllowed = errors.New("chain growth not allowed")

type chainWriter struct {
	b      *cell.Builder
	noWrap bool
	wraps  int
}

func newChainWriter() *chainWriter {
	return &chainWriter{b: cell.NewBuilder()}
}

// trial returns writer over a copy of the current front cell which fails instead of growing the chain
func (w *chainWriter) trial() *chainWriter {
	return &chainWriter{b: w.b.Clone(), noWrap: true}
}

func (w *chainWriter) adopt(t *chainWriter) {
	w.b = t.b
}

func (w *chainWriter) wrap() error {
	if w.noWrap {
		return errGrowthNotAllowed
	}
	c, err := w.b.Finalize()
	if err != nil {
		return err
	}
	w.b = cell.NewBuilder()
	w.wraps++
	return w.b.AppendReference(c)
}

// prependBits splits bits across cells when needed: the tail goes into the current cell, the head into the new one
func (w *chainWriter) prependBits(bits cell.BitString) error {
	for bits.Len() > 0 {
		free := w.b.BitsFree()
		if free == 0 {
			if err := w.wrap(); err != nil {
				return err
			}
			continue
		}
		if bits.Len() <= free {
			return w.b.PrependBits(bits)
		}
		if err := w.b.PrependBits(bits.Slice(bits.Len()-free, bits.Len())); err != nil {
			return err
		}
		bits = bits.Slice(0, bits.Len()-free)
		if err := w.wrap(); err != nil {
			return err
		}
	}
	return nil
}

// prependUnit keeps bits together with the reference following them in the same cell. ref may be nil
func (w *chainWriter) prependUnit(bits cell.BitString, ref *cell.Cell) error {
	if bits.Len() > w.b.BitsFree() || (ref != nil && w.b.RefsFree() == 0) {
		if err := w.wrap(); err != nil {
			return err
		}
	}
	if ref != nil {
		if err := w.b.PrependReference(ref); err != nil {
			return err
		}
	}
	return w.b.PrependBits(bits)
}

func (w *chainWriter) finalize() (*cell.Cell, error) {
	return w.b.Finalize()
}

// chainReader reads bits sequentially, descending into the continuation when the current cell is exhausted
type chainReader struct {
	s *cell.Slice
}

func newChainReader(s *cell.Slice) *chainReader {
	return &chainReader{s: s}
}

func (r *chainReader) readBits(n int) (cell.BitString, error) {
	if n <= r.s.RemainingBits() {
		return r.s.ReadBits(n)
	}
	var w cell.BitWriter
	for n > 0 {
		if r.s.RemainingBits() == 0 {
			if r.s.RemainingRefs() != 1 {
				return cell.BitString{}, fmt.Errorf("%w: %d more bits expected, no continuation", cell.ErrUnderrun, n)
			}
			next, err := r.s.ReadNextReference()
			if err != nil {
				return cell.BitString{}, err
			}
			r.s = next
			continue
		}
		k := min(n, r.s.RemainingBits())
		bits, err := r.s.ReadBits(k)
		if err != nil {
			return cell.BitString{}, err
		}
		w.WriteBits(bits)
		n -= k
	}
	return w.BitString(), nil
}

func (r *chainReader) readUint(n int) (uint64, error) {
	bits, err := r.readBits(n)
	if err != nil {
		return 0, err
	}
	return bits.Uint(0, n), nil
}

func (r *chainReader) readBigUint(n int) (*big.Int, error) {
	bits, err := r.readBits(n)
	if err != nil {
		return nil, err
	}
	return bits.BigUint(), nil
}

func (r *chainReader) readByte() (byte, error) {
	v, err := r.readUint(8)
	return byte(v), err
}

func (r *chainReader) readRef() (*cell.Cell, error) {
	return r.s.ReadNextCell()
}

func (r *chainReader) checkConsumed() error {
	if !r.s.IsEmpty() {
		return fmt.Errorf("%w: %d bits and %d references left", ErrTrailingData, r.s.RemainingBits(), r.s.RemainingRefs())
	}
	return nil
}
