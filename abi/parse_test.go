package abi

import (
	"errors"
	"testing"

	"github.com/lunfardo314/cellabi/util"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, s := range []string{
		"uint8", "uint256", "int257", "bool", "bits1023", "dint", "duint",
		"uint8[3]", "int32[]", "bool[2][]", "(uint8,bool)", "(dint,(bits4,bool[]))[5]", "()",
	} {
		typ, err := ParseType(s)
		require.NoError(t, err, s)
		require.EqualValues(t, s, typ.Signature())
	}
	for _, s := range []string{"uint0", "uint257", "int258", "bits1024", "float", "uint8[", "(uint8", "uint8]", "(uint8,)"} {
		_, err := ParseType(s)
		require.Error(t, err, s)
	}
	_, err := ParseType("uint300")
	require.True(t, errors.Is(err, ErrInvalidType))
	util.RequirePanicOrErrorWith(t, func() error {
		MustParseType("bits0")
		return nil
	}, "invalid parameter type")
}

func TestParseFunctionSignature(t *testing.T) {
	f, err := ParseFunctionSignature("transfer(uint256, (bool,int8)[])(bool)")
	require.NoError(t, err)
	require.EqualValues(t, "transfer", f.Name)
	require.EqualValues(t, "transfer(uint256,(bool,int8)[])(bool)", f.Signature())
	require.EqualValues(t, 2, len(f.Inputs))
	require.EqualValues(t, "value1", f.Inputs[1].Name)
	require.EqualValues(t, KindDynamicArray, f.Inputs[1].Type.Kind)
	require.EqualValues(t, SelectorOf(f.Signature()), f.Selector())

	f, err = ParseFunctionSignature("constructor()()")
	require.NoError(t, err)
	require.EqualValues(t, 0, len(f.Inputs)+len(f.Outputs))

	_, err = ParseFunctionSignature("(uint8)()")
	util.RequireErrorWith(t, err, "function name expected")
	_, err = ParseFunctionSignature("f(uint8)")
	require.Error(t, err)
	_, err = ParseFunctionSignature("f()()x")
	require.Error(t, err)
}
