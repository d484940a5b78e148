package dict

import (
	"fmt"
	"math/bits"

	"github.com/lunfardo314/cellabi/cell"
)

// lenBits is the number of bits needed to store a length in the range [0, m]
func lenBits(m int) int {
	return bits.Len(uint(m))
}

func isSame(s cell.BitString) bool {
	for i := 1; i < s.Len(); i++ {
		if s.Bit(i) != s.Bit(0) {
			return false
		}
	}
	return true
}

// writeLabel writes the shortest of the three label forms for prefix s with m bits of key remaining
func writeLabel(w *cell.BitWriter, s cell.BitString, m int) {
	l := s.Len()
	k := lenBits(m)
	shortCost := 2*l + 2
	longCost := 2 + k + l
	sameCost := -1
	if isSame(s) {
		sameCost = 3 + k
	}

	switch {
	case sameCost >= 0 && sameCost < shortCost && sameCost < longCost:
		// hml_same$11 v:Bit n:(#<= m)
		w.WriteBit(true)
		w.WriteBit(true)
		w.WriteBit(l > 0 && s.Bit(0))
		cell.WriteUnsigned(w, uint(l), k)
	case shortCost <= longCost:
		// hml_short$0 len:(Unary ~n) s:(n * Bit)
		w.WriteBit(false)
		for i := 0; i < l; i++ {
			w.WriteBit(true)
		}
		w.WriteBit(false)
		w.WriteBits(s)
	default:
		// hml_long$10 n:(#<= m) s:(n * Bit)
		w.WriteBit(true)
		w.WriteBit(false)
		cell.WriteUnsigned(w, uint(l), k)
		w.WriteBits(s)
	}
}

func readLabel(s *cell.Slice, m int) (cell.BitString, error) {
	first, err := s.ReadBit()
	if err != nil {
		return cell.BitString{}, err
	}
	if !first {
		l := 0
		for {
			one, err := s.ReadBit()
			if err != nil {
				return cell.BitString{}, err
			}
			if !one {
				break
			}
			l++
			if l > m {
				return cell.BitString{}, fmt.Errorf("%w: short label longer than %d", ErrMalformed, m)
			}
		}
		return s.ReadBits(l)
	}
	second, err := s.ReadBit()
	if err != nil {
		return cell.BitString{}, err
	}
	k := lenBits(m)
	if !second {
		l, err := s.ReadUint(k)
		if err != nil {
			return cell.BitString{}, err
		}
		if int(l) > m {
			return cell.BitString{}, fmt.Errorf("%w: long label length %d > %d", ErrMalformed, l, m)
		}
		return s.ReadBits(int(l))
	}
	v, err := s.ReadBit()
	if err != nil {
		return cell.BitString{}, err
	}
	l, err := s.ReadUint(k)
	if err != nil {
		return cell.BitString{}, err
	}
	if int(l) > m {
		return cell.BitString{}, fmt.Errorf("%w: same label length %d > %d", ErrMalformed, l, m)
	}
	var w cell.BitWriter
	for i := 0; i < int(l); i++ {
		w.WriteBit(v)
	}
	return w.BitString(), nil
}
