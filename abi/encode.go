package abi

import (
	"fmt"
	"math/big"

	"github.com/lunfardo314/cellabi/cell"
)

// scalarBits serializes canonical value of a non-composite kind
func scalarBits(t ParamType, v any) (cell.BitString, error) {
	var w cell.BitWriter
	switch t.Kind {
	case KindUint:
		w.WriteBigUint(v.(*big.Int), t.Size)
	case KindInt:
		n := v.(*big.Int)
		if n.Sign() < 0 {
			n = new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), uint(t.Size)))
		}
		w.WriteBigUint(n, t.Size)
	case KindBool:
		w.WriteBit(v.(bool))
	case KindBits:
		return v.(cell.BitString), nil
	case KindDint:
		return cell.BitStringFromBytes(EncodeDint(v.(*big.Int))), nil
	case KindDuint:
		data, err := EncodeDuint(v.(*big.Int))
		if err != nil {
			return cell.BitString{}, err
		}
		return cell.BitStringFromBytes(data), nil
	default:
		return cell.BitString{}, fmt.Errorf("%w: %s is not a scalar", ErrInvalidType, t.Kind)
	}
	return w.BitString(), nil
}

// prependValue writes canonical value in front of everything written so far
func prependValue(w *chainWriter, t ParamType, v any, path string) error {
	switch t.Kind {
	case KindFixedArray:
		return prependFixedArray(w, t, v.([]any), path)
	case KindDynamicArray:
		return prependDynamicArray(w, t, v.([]any), path)
	case KindTuple:
		items := v.([]any)
		for i := len(t.Components) - 1; i >= 0; i-- {
			if err := prependValue(w, t.Components[i].Type, items[i], componentPath(path, t.Components[i], i)); err != nil {
				return err
			}
		}
		return nil
	}
	bits, err := scalarBits(t, v)
	if err != nil {
		return paramError(path, err)
	}
	return w.prependBits(bits)
}

// prependParams writes canonical values of the parameter list, last parameter first
func prependParams(w *chainWriter, params []Param, values []any, prefix string) error {
	for i := len(params) - 1; i >= 0; i-- {
		if err := prependValue(w, params[i].Type, values[i], fmt.Sprintf("%s[%d]", prefix, i)); err != nil {
			return err
		}
	}
	return nil
}

// encodeChain encodes single value as its own chain
func encodeChain(t ParamType, v any, path string) (*cell.Cell, error) {
	w := newChainWriter()
	if err := prependValue(w, t, v, path); err != nil {
		return nil, err
	}
	return w.finalize()
}
