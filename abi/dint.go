package abi

import (
	"fmt"
	"math/big"
)

// Dynamic integers are serialized as a sequence of bytes, each carrying 7 payload bits.
// Bit 7 is the continuation flag: set on every byte except the last one.
// Groups go from the least significant to the most significant.
// The last group is sign-extended for dint and zero-filled for duint.

const (
	dintGroupBits    = 7
	dintPayloadMask  = 0x7f
	dintContinuation = 0x80
)

func dintGroups(bitLen int) int {
	ret := (bitLen + dintGroupBits - 1) / dintGroupBits
	if ret == 0 {
		ret = 1
	}
	return ret
}

func encodeGroups(v *big.Int, groups int) []byte {
	ret := make([]byte, groups)
	mask := big.NewInt(dintPayloadMask)
	tmp := new(big.Int)
	for i := 0; i < groups; i++ {
		// Rsh and And of negative big.Int follow two's complement semantics
		tmp.Rsh(v, uint(i*dintGroupBits))
		tmp.And(tmp, mask)
		ret[i] = byte(tmp.Uint64())
		if i < groups-1 {
			ret[i] |= dintContinuation
		}
	}
	return ret
}

// EncodeDint encodes signed integer with minimal number of groups
func EncodeDint(v *big.Int) []byte {
	return encodeGroups(v, dintGroups(signedBitLen(v)))
}

// EncodeDuint encodes non-negative integer with minimal number of groups
func EncodeDuint(v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s for duint", ErrValueOutOfRange, v.String())
	}
	return encodeGroups(v, dintGroups(v.BitLen())), nil
}

type byteSource func() (byte, error)

func decodeGroups(next byteSource, signed bool) (*big.Int, int, error) {
	ret := new(big.Int)
	tmp := new(big.Int)
	groups := 0
	for {
		b, err := next()
		if err != nil {
			return nil, groups, err
		}
		tmp.SetUint64(uint64(b & dintPayloadMask))
		tmp.Lsh(tmp, uint(groups*dintGroupBits))
		ret.Or(ret, tmp)
		groups++
		if b&dintContinuation == 0 {
			break
		}
	}
	topBit := groups*dintGroupBits - 1
	if signed && ret.Bit(topBit) == 1 {
		tmp.SetInt64(1)
		tmp.Lsh(tmp, uint(groups*dintGroupBits))
		ret.Sub(ret, tmp)
	}
	return ret, groups, nil
}

func bytesSource(data []byte) (byteSource, *int) {
	pos := 0
	return func() (byte, error) {
		if pos >= len(data) {
			return 0, fmt.Errorf("dynamic integer: unexpected end of data after %d bytes", pos)
		}
		pos++
		return data[pos-1], nil
	}, &pos
}

// DecodeDint decodes signed dynamic integer. Returns value and number of bytes consumed.
// Non-minimal encodings are accepted
func DecodeDint(data []byte) (*big.Int, int, error) {
	src, pos := bytesSource(data)
	ret, _, err := decodeGroups(src, true)
	return ret, *pos, err
}

// DecodeDuint decodes unsigned dynamic integer. Returns value and number of bytes consumed
func DecodeDuint(data []byte) (*big.Int, int, error) {
	src, pos := bytesSource(data)
	ret, _, err := decodeGroups(src, false)
	return ret, *pos, err
}
