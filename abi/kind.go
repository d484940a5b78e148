package abi

import (
	"fmt"
	"strings"
)

type (
	Kind byte

	// ParamType is a tagged variant over all supported kinds.
	// Size is the bit width of uintN, intN, bitsN and the length K of fixed arrays
	ParamType struct {
		Kind       Kind
		Size       int
		Elem       *ParamType
		Components []Param
	}

	Param struct {
		Name string
		Type ParamType
	}
)

const (
	KindUint = Kind(iota)
	KindInt
	KindBool
	KindBits
	KindDint
	KindDuint
	KindFixedArray
	KindDynamicArray
	KindTuple
)

const (
	MaxUintBits = 256
	MaxIntBits  = 257
)

var kindNames = map[Kind]string{
	KindUint:         "uint",
	KindInt:          "int",
	KindBool:         "bool",
	KindBits:         "bits",
	KindDint:         "dint",
	KindDuint:        "duint",
	KindFixedArray:   "fixed array",
	KindDynamicArray: "dynamic array",
	KindTuple:        "tuple",
}

func (k Kind) String() string {
	if ret, ok := kindNames[k]; ok {
		return ret
	}
	return fmt.Sprintf("kind(%d)", k)
}

func Uint(n int) ParamType  { return ParamType{Kind: KindUint, Size: n} }
func Int(n int) ParamType   { return ParamType{Kind: KindInt, Size: n} }
func Bool() ParamType       { return ParamType{Kind: KindBool} }
func Bits(n int) ParamType  { return ParamType{Kind: KindBits, Size: n} }
func Dint() ParamType       { return ParamType{Kind: KindDint} }
func Duint() ParamType      { return ParamType{Kind: KindDuint} }
func Tuple(components ...Param) ParamType {
	return ParamType{Kind: KindTuple, Components: components}
}

func FixedArray(elem ParamType, k int) ParamType {
	return ParamType{Kind: KindFixedArray, Size: k, Elem: &elem}
}

func DynamicArray(elem ParamType) ParamType {
	return ParamType{Kind: KindDynamicArray, Elem: &elem}
}

func NewParam(name string, t ParamType) Param {
	return Param{Name: name, Type: t}
}

// Params names types 'value0', 'value1', ...
func Params(types ...ParamType) []Param {
	ret := make([]Param, len(types))
	for i, t := range types {
		ret[i] = Param{Name: fmt.Sprintf("value%d", i), Type: t}
	}
	return ret
}

// Signature is the canonical type token used in function signatures
func (t ParamType) Signature() string {
	switch t.Kind {
	case KindUint:
		return fmt.Sprintf("uint%d", t.Size)
	case KindInt:
		return fmt.Sprintf("int%d", t.Size)
	case KindBool:
		return "bool"
	case KindBits:
		return fmt.Sprintf("bits%d", t.Size)
	case KindDint:
		return "dint"
	case KindDuint:
		return "duint"
	case KindFixedArray:
		return fmt.Sprintf("%s[%d]", t.Elem.Signature(), t.Size)
	case KindDynamicArray:
		return t.Elem.Signature() + "[]"
	case KindTuple:
		return "(" + paramsSignature(t.Components) + ")"
	}
	return "<" + t.Kind.String() + ">"
}

func (t ParamType) String() string {
	return t.Signature()
}

func paramsSignature(params []Param) string {
	ret := make([]string, len(params))
	for i := range params {
		ret[i] = params[i].Type.Signature()
	}
	return strings.Join(ret, ",")
}

func (t ParamType) Validate() error {
	switch t.Kind {
	case KindUint:
		if t.Size < 1 || t.Size > MaxUintBits {
			return fmt.Errorf("%w: uint%d", ErrInvalidType, t.Size)
		}
	case KindInt:
		if t.Size < 1 || t.Size > MaxIntBits {
			return fmt.Errorf("%w: int%d", ErrInvalidType, t.Size)
		}
	case KindBits:
		if t.Size < 1 || t.Size > 1023 {
			return fmt.Errorf("%w: bits%d", ErrInvalidType, t.Size)
		}
	case KindBool, KindDint, KindDuint:
	case KindFixedArray, KindDynamicArray:
		if t.Elem == nil {
			return fmt.Errorf("%w: array without element type", ErrInvalidType)
		}
		if t.Kind == KindFixedArray && (t.Size < 0 || int64(t.Size) > maxArrayLength) {
			return fmt.Errorf("%w: fixed array length %d", ErrInvalidType, t.Size)
		}
		return t.Elem.Validate()
	case KindTuple:
		for _, c := range t.Components {
			if err := c.Type.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidType, t.Kind)
	}
	return nil
}
