package abi

import (
	"fmt"
	"math/big"
)

func readValue(r *chainReader, t ParamType, path string) (any, error) {
	switch t.Kind {
	case KindUint:
		ret, err := r.readBigUint(t.Size)
		return ret, paramError(path, err)
	case KindInt:
		ret, err := r.readBigUint(t.Size)
		if err != nil {
			return nil, paramError(path, err)
		}
		if ret.Bit(t.Size-1) == 1 {
			ret.Sub(ret, new(big.Int).Lsh(big.NewInt(1), uint(t.Size)))
		}
		return ret, nil
	case KindBool:
		bits, err := r.readBits(1)
		if err != nil {
			return nil, paramError(path, err)
		}
		return bits.Bit(0), nil
	case KindBits:
		ret, err := r.readBits(t.Size)
		if err != nil {
			return nil, paramError(path, err)
		}
		return ret, nil
	case KindDint, KindDuint:
		ret, _, err := decodeGroups(r.readByte, t.Kind == KindDint)
		if err != nil {
			return nil, paramError(path, err)
		}
		return ret, nil
	case KindFixedArray, KindDynamicArray:
		return readArray(r, t, path)
	case KindTuple:
		ret := make([]any, len(t.Components))
		var err error
		for i, c := range t.Components {
			if ret[i], err = readValue(r, c.Type, componentPath(path, c, i)); err != nil {
				return nil, err
			}
		}
		return ret, nil
	}
	return nil, paramErrorf(path, ErrInvalidType, "kind %s", t.Kind)
}

func readParams(r *chainReader, params []Param, prefix string) ([]any, error) {
	ret := make([]any, len(params))
	var err error
	for i, p := range params {
		if ret[i], err = readValue(r, p.Type, fmt.Sprintf("%s[%d]", prefix, i)); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
