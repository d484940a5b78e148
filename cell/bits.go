package cell

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/exp/constraints"
)

// BitString is an immutable sequence of bits, most significant bit of the first byte first.
// Unused bits of the last byte are always zero
type BitString struct {
	data []byte
	n    int
}

func bytesForBits(n int) int {
	return (n + 7) / 8
}

// NewBitString takes first nbits of data
func NewBitString(data []byte, nbits int) (BitString, error) {
	if nbits < 0 || nbits > len(data)*8 {
		return BitString{}, fmt.Errorf("NewBitString: %d bits requested, %d available", nbits, len(data)*8)
	}
	ret := BitString{data: make([]byte, bytesForBits(nbits)), n: nbits}
	copy(ret.data, data)
	ret.clearTail()
	return ret, nil
}

func MustBitString(data []byte, nbits int) BitString {
	ret, err := NewBitString(data, nbits)
	if err != nil {
		panic(err)
	}
	return ret
}

// BitStringFromBytes all bits of data
func BitStringFromBytes(data []byte) BitString {
	return MustBitString(data, len(data)*8)
}

// ParseBitString parses '0x<hex>' (4 bits per digit), '0b<binary>' or plain hex
func ParseBitString(s string) (BitString, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "0b"):
		var w BitWriter
		for _, c := range s[2:] {
			switch c {
			case '0':
				w.WriteBit(false)
			case '1':
				w.WriteBit(true)
			case '_':
			default:
				return BitString{}, fmt.Errorf("ParseBitString: wrong binary digit '%c'", c)
			}
		}
		return w.BitString(), nil
	case strings.HasPrefix(s, "0x"):
		s = s[2:]
	}
	nbits := len(s) * 4
	if len(s)%2 == 1 {
		s += "0"
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return BitString{}, fmt.Errorf("ParseBitString: %w", err)
	}
	return NewBitString(data, nbits)
}

func (b BitString) clearTail() {
	if r := b.n % 8; r != 0 {
		b.data[len(b.data)-1] &= byte(0xff << (8 - r))
	}
}

func (b BitString) Len() int {
	return b.n
}

func (b BitString) Bit(i int) bool {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("BitString.Bit: index %d out of range [0,%d)", i, b.n))
	}
	return b.data[i/8]&(0x80>>(i%8)) != 0
}

// Bytes returns copy of the underlying bytes, ceil(Len/8) of them
func (b BitString) Bytes() []byte {
	ret := make([]byte, len(b.data))
	copy(ret, b.data)
	return ret
}

// PaddedBytes returns bytes with the completion tag: when Len is not a multiple of 8,
// a single 1 bit is appended and the rest of the last byte is zero
func (b BitString) PaddedBytes() []byte {
	ret := b.Bytes()
	if r := b.n % 8; r != 0 {
		ret[len(ret)-1] |= 0x80 >> r
	}
	return ret
}

// BitStringFromPadded is the inverse of PaddedBytes. When padded == false all bits of data are taken
func BitStringFromPadded(data []byte, padded bool) (BitString, error) {
	if !padded {
		return BitStringFromBytes(data), nil
	}
	if len(data) == 0 {
		return BitString{}, fmt.Errorf("BitStringFromPadded: empty data can't be padded")
	}
	last := data[len(data)-1]
	if last == 0 {
		return BitString{}, fmt.Errorf("BitStringFromPadded: completion tag not found")
	}
	tz := 0
	for last&1 == 0 {
		last >>= 1
		tz++
	}
	return NewBitString(data, len(data)*8-tz-1)
}

// Slice returns bits [from, to)
func (b BitString) Slice(from, to int) BitString {
	if from < 0 || to > b.n || from > to {
		panic(fmt.Sprintf("BitString.Slice: wrong range [%d,%d) of %d", from, to, b.n))
	}
	if from%8 == 0 {
		return MustBitString(b.data[from/8:], to-from)
	}
	var w BitWriter
	for i := from; i < to; i++ {
		w.WriteBit(b.Bit(i))
	}
	return w.BitString()
}

func (b BitString) Concat(other BitString) BitString {
	var w BitWriter
	w.WriteBits(b)
	w.WriteBits(other)
	return w.BitString()
}

func (b BitString) Equal(other BitString) bool {
	if b.n != other.n {
		return false
	}
	for i := range b.data {
		if b.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// Uint interprets bits [from, from+nbits) as big-endian unsigned integer. nbits <= 64
func (b BitString) Uint(from, nbits int) uint64 {
	if nbits > 64 {
		panic("BitString.Uint: more than 64 bits")
	}
	var ret uint64
	for i := from; i < from+nbits; i++ {
		ret <<= 1
		if b.Bit(i) {
			ret |= 1
		}
	}
	return ret
}

// BigUint interprets all bits as big-endian unsigned integer
func (b BitString) BigUint() *big.Int {
	ret := new(big.Int).SetBytes(b.data)
	if r := b.n % 8; r != 0 {
		ret.Rsh(ret, uint(8-r))
	}
	return ret
}

// String is hex representation of bytes followed by bit length, for example 'a8:5'
func (b BitString) String() string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(b.data), b.n)
}

// BitWriter accumulates bits. The zero value is ready to use
type BitWriter struct {
	buf []byte
	n   int
}

func (w *BitWriter) Len() int {
	return w.n
}

func (w *BitWriter) WriteBit(bit bool) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if bit {
		w.buf[w.n/8] |= 0x80 >> (w.n % 8)
	}
	w.n++
}

func (w *BitWriter) WriteBits(b BitString) {
	if w.n%8 == 0 {
		w.buf = append(w.buf, b.data...)
		w.n += b.n
		return
	}
	for i := 0; i < b.n; i++ {
		w.WriteBit(b.Bit(i))
	}
}

// WriteBigUint writes nbits least significant bits of non-negative v, big-endian
func (w *BitWriter) WriteBigUint(v *big.Int, nbits int) {
	for i := nbits - 1; i >= 0; i-- {
		w.WriteBit(v.Bit(i) == 1)
	}
}

func (w *BitWriter) BitString() BitString {
	return MustBitString(w.buf, w.n)
}

// WriteUnsigned writes nbits least significant bits of v, big-endian
func WriteUnsigned[T constraints.Unsigned](w *BitWriter, v T, nbits int) {
	for i := nbits - 1; i >= 0; i-- {
		w.WriteBit((v>>uint(i))&1 == 1)
	}
}

// UintBits is a bit string of nbits holding v
func UintBits[T constraints.Unsigned](v T, nbits int) BitString {
	var w BitWriter
	WriteUnsigned(&w, v, nbits)
	return w.BitString()
}
