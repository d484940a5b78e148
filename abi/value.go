package abi

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/lunfardo314/cellabi/cell"
)

// Canonical values:
//   - uintN, intN, dint, duint: *big.Int
//   - bool: bool
//   - bitsN: cell.BitString
//   - arrays and tuples: []any of canonical values

// CoerceValue converts value of any supported Go representation into the canonical one, checking ranges
func CoerceValue(t ParamType, v any) (any, error) {
	return coerce(t, v, "value")
}

// CoerceValues coerces argument list against the parameter declarations
func CoerceValues(params []Param, values []any, prefix string) ([]any, error) {
	if len(values) != len(params) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongParamCount, len(params), len(values))
	}
	ret := make([]any, len(values))
	var err error
	for i, p := range params {
		if ret[i], err = coerce(p.Type, values[i], fmt.Sprintf("%s[%d]", prefix, i)); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// ValuesFromMap orders values by parameter names
func ValuesFromMap(params []Param, m map[string]any) ([]any, error) {
	ret := make([]any, len(params))
	for i, p := range params {
		v, ok := m[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: value of '%s' not provided", ErrWrongParamCount, p.Name)
		}
		ret[i] = v
	}
	if len(m) != len(params) {
		return nil, fmt.Errorf("%w: expected %d named values, got %d", ErrWrongParamCount, len(params), len(m))
	}
	return ret, nil
}

func coerce(t ParamType, v any, path string) (any, error) {
	switch t.Kind {
	case KindUint, KindInt, KindDint, KindDuint:
		n, err := toBigInt(v)
		if err != nil {
			return nil, paramError(path, err)
		}
		if err = checkRange(t, n); err != nil {
			return nil, paramError(path, err)
		}
		return n, nil
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
		return nil, paramErrorf(path, ErrTypeMismatch, "bool expected, got %T", v)
	case KindBits:
		bits, err := toBitString(v)
		if err != nil {
			return nil, paramError(path, err)
		}
		if bits.Len() != t.Size {
			return nil, paramErrorf(path, ErrValueOutOfRange, "%d bits expected, got %d", t.Size, bits.Len())
		}
		return bits, nil
	case KindFixedArray, KindDynamicArray:
		items, err := toSlice(v)
		if err != nil {
			return nil, paramError(path, err)
		}
		if t.Kind == KindFixedArray && len(items) != t.Size {
			return nil, paramErrorf(path, ErrArrayLength, "%d items expected, got %d", t.Size, len(items))
		}
		if int64(len(items)) > maxArrayLength {
			return nil, paramErrorf(path, ErrArrayLength, "too many items: %d", len(items))
		}
		ret := make([]any, len(items))
		for i := range items {
			if ret[i], err = coerce(*t.Elem, items[i], itemPath(path, i)); err != nil {
				return nil, err
			}
		}
		return ret, nil
	case KindTuple:
		items, err := tupleItems(t, v)
		if err != nil {
			return nil, paramError(path, err)
		}
		ret := make([]any, len(items))
		for i, c := range t.Components {
			if ret[i], err = coerce(c.Type, items[i], componentPath(path, c, i)); err != nil {
				return nil, err
			}
		}
		return ret, nil
	}
	return nil, paramErrorf(path, ErrInvalidType, "kind %s", t.Kind)
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil *big.Int", ErrTypeMismatch)
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("%w: %v is not an exact integer", ErrTypeMismatch, n)
		}
		return big.NewInt(int64(n)), nil
	case string:
		ret, ok := new(big.Int).SetString(strings.TrimSpace(n), 0)
		if !ok {
			return nil, fmt.Errorf("%w: can't parse integer '%s'", ErrTypeMismatch, n)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%w: integer expected, got %T", ErrTypeMismatch, v)
}

// signedBitLen is the minimal two's complement length of n, including the sign bit
func signedBitLen(n *big.Int) int {
	if n.Sign() >= 0 {
		return n.BitLen() + 1
	}
	m := new(big.Int).Neg(n)
	m.Sub(m, big.NewInt(1))
	return m.BitLen() + 1
}

func checkRange(t ParamType, n *big.Int) error {
	switch t.Kind {
	case KindUint:
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return fmt.Errorf("%w: %s does not fit uint%d", ErrValueOutOfRange, n.String(), t.Size)
		}
	case KindInt:
		if signedBitLen(n) > t.Size {
			return fmt.Errorf("%w: %s does not fit int%d", ErrValueOutOfRange, n.String(), t.Size)
		}
	case KindDuint:
		if n.Sign() < 0 {
			return fmt.Errorf("%w: negative value %s for duint", ErrValueOutOfRange, n.String())
		}
	}
	return nil
}

func toBitString(v any) (cell.BitString, error) {
	switch b := v.(type) {
	case cell.BitString:
		return b, nil
	case *cell.BitString:
		if b != nil {
			return *b, nil
		}
	case []byte:
		return cell.BitStringFromBytes(b), nil
	case string:
		ret, err := cell.ParseBitString(b)
		if err != nil {
			return cell.BitString{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return ret, nil
	}
	return cell.BitString{}, fmt.Errorf("%w: bit string expected, got %T", ErrTypeMismatch, v)
}

func toSlice(v any) ([]any, error) {
	if ret, ok := v.([]any); ok {
		return ret, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: list expected, got %T", ErrTypeMismatch, v)
	}
	ret := make([]any, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}
	return ret, nil
}

// tupleItems accepts list of components or a map keyed by component names
func tupleItems(t ParamType, v any) ([]any, error) {
	var byName func(name string) (any, bool)
	size := 0
	switch m := v.(type) {
	case map[string]any:
		byName = func(name string) (any, bool) { r, ok := m[name]; return r, ok }
		size = len(m)
	case map[any]any:
		byName = func(name string) (any, bool) { r, ok := m[name]; return r, ok }
		size = len(m)
	}
	if byName == nil {
		items, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		if len(items) != len(t.Components) {
			return nil, fmt.Errorf("%w: tuple of %d components expected, got %d", ErrWrongParamCount, len(t.Components), len(items))
		}
		return items, nil
	}
	if size != len(t.Components) {
		return nil, fmt.Errorf("%w: tuple of %d components expected, got %d", ErrWrongParamCount, len(t.Components), size)
	}
	ret := make([]any, len(t.Components))
	for i, c := range t.Components {
		var ok bool
		if ret[i], ok = byName(c.Name); !ok {
			return nil, fmt.Errorf("%w: tuple component '%s' not provided", ErrWrongParamCount, c.Name)
		}
	}
	return ret, nil
}

// EqualValues compares canonical values
func EqualValues(a, b any) bool {
	switch av := a.(type) {
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av != nil && bv != nil && av.Cmp(bv) == 0
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case cell.BitString:
		bv, ok := b.(cell.BitString)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// PlainValue converts canonical value into plain Go types: integers fitting int64 as int64,
// larger ones as decimal strings, bit strings as '0x..' or '0b..' strings
func PlainValue(v any) any {
	switch tv := v.(type) {
	case *big.Int:
		if tv.IsInt64() {
			return tv.Int64()
		}
		return tv.String()
	case cell.BitString:
		return BitStringText(tv)
	case []any:
		ret := make([]any, len(tv))
		for i := range tv {
			ret[i] = PlainValue(tv[i])
		}
		return ret
	}
	return v
}

// BitStringText is the text form accepted back by cell.ParseBitString
func BitStringText(b cell.BitString) string {
	if b.Len()%4 == 0 {
		hexStr := fmt.Sprintf("%x", b.Bytes())
		return "0x" + hexStr[:b.Len()/4]
	}
	var sb strings.Builder
	sb.WriteString("0b")
	for i := 0; i < b.Len(); i++ {
		if b.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
