package abi

import (
	"encoding/binary"
	"fmt"

	"github.com/lunfardo314/cellabi/cell"
	"github.com/minio/sha256-simd"
)

const (
	versionBits  = 8
	selectorBits = 32
	headerBits   = versionBits + selectorBits
)

type (
	// Function is immutable after creation
	Function struct {
		Name    string
		Inputs  []Param
		Outputs []Param

		signature string
		selector  uint32
	}

	Header struct {
		Version  byte
		Selector uint32
	}
)

func NewFunction(name string, inputs, outputs []Param) (*Function, error) {
	if name == "" {
		return nil, fmt.Errorf("NewFunction: empty function name")
	}
	for i, p := range inputs {
		if err := p.Type.Validate(); err != nil {
			return nil, paramError(fmt.Sprintf("inputs[%d]", i), err)
		}
	}
	for i, p := range outputs {
		if err := p.Type.Validate(); err != nil {
			return nil, paramError(fmt.Sprintf("outputs[%d]", i), err)
		}
	}
	ret := &Function{
		Name:    name,
		Inputs:  append([]Param(nil), inputs...),
		Outputs: append([]Param(nil), outputs...),
	}
	ret.signature = fmt.Sprintf("%s(%s)(%s)", name, paramsSignature(inputs), paramsSignature(outputs))
	ret.selector = SelectorOf(ret.signature)
	return ret, nil
}

func MustNewFunction(name string, inputs, outputs []Param) *Function {
	ret, err := NewFunction(name, inputs, outputs)
	if err != nil {
		panic(err)
	}
	return ret
}

// SelectorOf is the first 4 bytes of SHA-256 of the signature, big-endian
func SelectorOf(signature string) uint32 {
	h := sha256.Sum256([]byte(signature))
	return binary.BigEndian.Uint32(h[:4])
}

// Signature is canonical 'name(inputs)(outputs)'
func (f *Function) Signature() string {
	return f.signature
}

func (f *Function) Selector() uint32 {
	return f.selector
}

func (f *Function) String() string {
	return fmt.Sprintf("%s: 0x%08x", f.signature, f.selector)
}

func (h Header) Bits() cell.BitString {
	var w cell.BitWriter
	cell.WriteUnsigned(&w, h.Version, versionBits)
	cell.WriteUnsigned(&w, h.Selector, selectorBits)
	return w.BitString()
}

func readHeader(r *chainReader) (Header, error) {
	v, err := r.readUint(versionBits)
	if err != nil {
		return Header{}, fmt.Errorf("header: %w", err)
	}
	sel, err := r.readUint(selectorBits)
	if err != nil {
		return Header{}, fmt.Errorf("header: %w", err)
	}
	return Header{Version: byte(v), Selector: uint32(sel)}, nil
}

// ReadHeader returns version and selector without decoding parameters.
// withSlot tells whether the body is a call with signature slot or a response
func ReadHeader(root *cell.Cell, withSlot bool) (Header, error) {
	s := root.BeginParse()
	if withSlot {
		if _, err := s.ReadNextCell(); err != nil {
			return Header{}, ErrNoSignatureSlot
		}
	}
	return readHeader(newChainReader(s))
}

// IsMyMessage checks the selector only
func (f *Function) IsMyMessage(root *cell.Cell, withSlot bool) bool {
	h, err := ReadHeader(root, withSlot)
	return err == nil && h.Selector == f.selector
}
