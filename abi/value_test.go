package abi

import (
	"errors"
	"math/big"
	"testing"

	"github.com/lunfardo314/cellabi/cell"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		for _, v := range []any{5, int8(5), uint64(5), "5", "0x5", 5.0, big.NewInt(5), *big.NewInt(5)} {
			ret, err := CoerceValue(Uint(8), v)
			require.NoError(t, err, "%T", v)
			require.True(t, EqualValues(big.NewInt(5), ret))
		}
		_, err := CoerceValue(Uint(8), 5.5)
		require.True(t, errors.Is(err, ErrTypeMismatch))
		_, err = CoerceValue(Uint(8), (*big.Int)(nil))
		require.True(t, errors.Is(err, ErrTypeMismatch))
	})
	t.Run("ranges", func(t *testing.T) {
		_, err := CoerceValue(Uint(8), 255)
		require.NoError(t, err)
		_, err = CoerceValue(Uint(8), 256)
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		_, err = CoerceValue(Uint(8), -1)
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		_, err = CoerceValue(Int(8), -128)
		require.NoError(t, err)
		_, err = CoerceValue(Int(8), 127)
		require.NoError(t, err)
		_, err = CoerceValue(Int(8), 128)
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		_, err = CoerceValue(Int(8), -129)
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		_, err = CoerceValue(Int(1), -1)
		require.NoError(t, err)
		_, err = CoerceValue(Int(1), 1)
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		_, err = CoerceValue(Duint(), -1)
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		_, err = CoerceValue(Dint(), "-1000000000000000000000000000000000")
		require.NoError(t, err)
	})
	t.Run("bits and bool", func(t *testing.T) {
		ret, err := CoerceValue(Bits(8), []byte{0xab})
		require.NoError(t, err)
		require.EqualValues(t, "0xab", BitStringText(ret.(cell.BitString)))
		_, err = CoerceValue(Bits(9), "0xab")
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		ret, err = CoerceValue(Bool(), "TRUE")
		require.NoError(t, err)
		require.EqualValues(t, true, ret)
		_, err = CoerceValue(Bool(), 1)
		require.True(t, errors.Is(err, ErrTypeMismatch))
	})
	t.Run("tuple by name", func(t *testing.T) {
		tup := Tuple(NewParam("x", Uint(8)), NewParam("y", Bool()))
		ret, err := CoerceValue(tup, map[any]any{"x": 1, "y": true})
		require.NoError(t, err)
		require.True(t, EqualValues([]any{big.NewInt(1), true}, ret))

		_, err = CoerceValue(tup, map[string]any{"x": 1, "z": true})
		require.True(t, errors.Is(err, ErrWrongParamCount))
		_, err = CoerceValue(tup, []any{1})
		require.True(t, errors.Is(err, ErrWrongParamCount))

		_, err = CoerceValue(tup, map[string]any{"x": 1000, "y": true})
		var pe *ParamError
		require.True(t, errors.As(err, &pe))
		require.EqualValues(t, "value.x", pe.Path)
	})
	t.Run("values from map", func(t *testing.T) {
		params := []Param{NewParam("a", Bool()), NewParam("b", Uint(8))}
		ret, err := ValuesFromMap(params, map[string]any{"b": 1, "a": false})
		require.NoError(t, err)
		require.EqualValues(t, []any{false, 1}, ret)
		_, err = ValuesFromMap(params, map[string]any{"b": 1})
		require.True(t, errors.Is(err, ErrWrongParamCount))
	})
}

func TestPlainValue(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	b, err := cell.ParseBitString("0b101")
	require.NoError(t, err)
	plain := PlainValue([]any{big.NewInt(-3), huge, true, b, cell.BitStringFromBytes([]byte{0x0f})})
	require.EqualValues(t, []any{int64(-3), "123456789012345678901234567890", true, "0b101", "0x0f"}, plain)
}

func TestEqualValues(t *testing.T) {
	require.True(t, EqualValues(big.NewInt(0), new(big.Int)))
	require.False(t, EqualValues(big.NewInt(0), false))
	require.False(t, EqualValues([]any{true}, []any{true, true}))
	require.True(t, EqualValues([]any{[]any{big.NewInt(1)}}, []any{[]any{big.NewInt(1)}}))
}
