package glb

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/lunfardo314/cellabi/abi"
	"github.com/lunfardo314/cellabi/boc"
	"github.com/lunfardo314/cellabi/cell"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

func FileMustExist(dir string) {
	_, err := os.Stat(dir)
	AssertNoError(err)
}

func FileExists(name string) bool {
	_, err := os.Stat(name)
	return !os.IsNotExist(err)
}

// readArg returns content of the file, stdin for '-', or the argument itself
func readArg(arg string) []byte {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		AssertNoError(err)
		return data
	}
	if FileExists(arg) {
		data, err := os.ReadFile(arg)
		AssertNoError(err)
		return data
	}
	return []byte(arg)
}

// MustGetFunction resolves function by name in the definitions file ('abi.definitions' in the profile)
// or parses it from the signature like 'transfer(bits256,uint128)()'
func MustGetFunction(nameOrSignature string) (*abi.Function, *byte) {
	if strings.Contains(nameOrSignature, "(") {
		f, err := abi.ParseFunctionSignature(nameOrSignature)
		AssertNoError(err)
		return f, nil
	}
	defsFile := viper.GetString("abi.definitions")
	Assertf(defsFile != "", "function '%s' can't be resolved: definitions file not specified", nameOrSignature)
	data, err := os.ReadFile(defsFile)
	AssertNoError(err)
	defs, funcs, err := abi.ParseDefinitionsYAML(data)
	AssertNoError(err)
	f, ok := funcs[nameOrSignature]
	Assertf(ok, "function '%s' not found in '%s'", nameOrSignature, defsFile)
	return f, &defs.Version
}

func CodecFor(version *byte) *abi.Codec {
	if version != nil {
		return Codec(*version)
	}
	return Codec()
}

// MustParseValues reads YAML list of values or a map of values by parameter names
func MustParseValues(params []abi.Param, arg string) []any {
	var raw any
	err := yaml.Unmarshal(readArg(arg), &raw)
	AssertNoError(err)
	switch v := raw.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			ks, ok := k.(string)
			Assertf(ok, "parameter name expected, got %v", k)
			m[ks] = val
		}
		ret, err := abi.ValuesFromMap(params, m)
		AssertNoError(err)
		return ret
	}
	Fatalf("list or map of values expected")
	return nil
}

// MustReadBOC accepts hex encoded BOC, a file with binary or hex BOC, or '-' for stdin
func MustReadBOC(arg string) *cell.Cell {
	data := readArg(arg)
	if bin, err := hex.DecodeString(strings.TrimSpace(string(data))); err == nil {
		data = bin
	}
	ret, err := boc.DeserializeSingleRoot(data)
	AssertNoError(err)
	return ret
}

func MustSerializeBOC(root *cell.Cell) []byte {
	ret, err := boc.SerializeSingleRoot(root, boc.WithCRC32C(!viper.GetBool("boc.no_crc")))
	AssertNoError(err)
	return ret
}

// OutputBOC writes binary BOC to the file if provided, otherwise prints hex
func OutputBOC(root *cell.Cell, fname string) {
	data := MustSerializeBOC(root)
	if fname != "" {
		err := os.WriteFile(fname, data, 0644)
		AssertNoError(err)
		Infof("%d bytes written to '%s'", len(data), fname)
		return
	}
	Infof("%s", hex.EncodeToString(data))
}

// ValuesYAML displays values by parameter names
func ValuesYAML(params []abi.Param, values []any) string {
	data, err := yaml.Marshal(namedValues(params, values))
	AssertNoError(err)
	return string(data)
}

func namedValues(params []abi.Param, values []any) yaml.MapSlice {
	ret := make(yaml.MapSlice, len(params))
	for i, p := range params {
		ret[i] = yaml.MapItem{Key: p.Name, Value: displayValue(p.Type, values[i])}
	}
	return ret
}

func displayValue(t abi.ParamType, v any) any {
	switch t.Kind {
	case abi.KindTuple:
		return namedValues(t.Components, v.([]any))
	case abi.KindFixedArray, abi.KindDynamicArray:
		items := v.([]any)
		ret := make([]any, len(items))
		for i := range items {
			ret[i] = displayValue(*t.Elem, items[i])
		}
		return ret
	}
	return abi.PlainValue(v)
}
