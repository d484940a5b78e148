package abi

import (
	"fmt"
	"strconv"
	"strings"
)

type typeParser struct {
	s   string
	pos int
}

// ParseType parses type token as it appears in function signatures, for example 'uint8[3][]' or '(bool,dint)'
func ParseType(s string) (ParamType, error) {
	p := &typeParser{s: strings.ReplaceAll(s, " ", "")}
	ret, err := p.parseType()
	if err != nil {
		return ParamType{}, err
	}
	if p.pos != len(p.s) {
		return ParamType{}, fmt.Errorf("ParseType: unexpected '%s' in '%s'", p.s[p.pos:], s)
	}
	return ret, nil
}

func MustParseType(s string) ParamType {
	ret, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// ParseFunctionSignature parses 'name(inputs)(outputs)'. Parameters are named 'value0', 'value1', ...
func ParseFunctionSignature(s string) (*Function, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return nil, fmt.Errorf("ParseFunctionSignature: function name expected in '%s'", s)
	}
	p := &typeParser{s: s, pos: open}
	inputs, err := p.parseList()
	if err != nil {
		return nil, err
	}
	outputs, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("ParseFunctionSignature: unexpected '%s' in '%s'", p.s[p.pos:], s)
	}
	return NewFunction(s[:open], Params(inputs...), Params(outputs...))
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return fmt.Errorf("ParseType: '%c' expected at position %d in '%s'", c, p.pos, p.s)
	}
	p.pos++
	return nil
}

// parseList parses '(T1,T2,...)'
func (p *typeParser) parseList() ([]ParamType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	ret := make([]ParamType, 0)
	if p.peek() == ')' {
		p.pos++
		return ret, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return ret, nil
		default:
			return nil, fmt.Errorf("ParseType: ',' or ')' expected at position %d in '%s'", p.pos, p.s)
		}
	}
}

func (p *typeParser) parseType() (ParamType, error) {
	var ret ParamType
	if p.peek() == '(' {
		components, err := p.parseList()
		if err != nil {
			return ParamType{}, err
		}
		ret = Tuple(Params(components...)...)
	} else {
		start := p.pos
		for p.pos < len(p.s) && isIdentChar(p.s[p.pos]) {
			p.pos++
		}
		var err error
		if ret, err = elementaryType(p.s[start:p.pos]); err != nil {
			return ParamType{}, err
		}
	}
	return p.parseArraySuffix(ret)
}

// parseArraySuffix applies '[k]' and '[]' dimensions to the element type
func (p *typeParser) parseArraySuffix(ret ParamType) (ParamType, error) {
	for p.peek() == '[' {
		p.pos++
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
		digits := p.s[start:p.pos]
		if err := p.expect(']'); err != nil {
			return ParamType{}, err
		}
		if digits == "" {
			ret = DynamicArray(ret)
			continue
		}
		k, err := strconv.Atoi(digits)
		if err != nil {
			return ParamType{}, fmt.Errorf("ParseType: wrong array length '%s'", digits)
		}
		ret = FixedArray(ret, k)
	}
	if err := ret.Validate(); err != nil {
		return ParamType{}, err
	}
	return ret, nil
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func elementaryType(s string) (ParamType, error) {
	switch s {
	case "bool":
		return Bool(), nil
	case "dint":
		return Dint(), nil
	case "duint":
		return Duint(), nil
	}
	for _, pref := range []struct {
		prefix string
		cons   func(int) ParamType
	}{{"uint", Uint}, {"int", Int}, {"bits", Bits}} {
		if !strings.HasPrefix(s, pref.prefix) {
			continue
		}
		n, err := strconv.Atoi(s[len(pref.prefix):])
		if err != nil {
			break
		}
		ret := pref.cons(n)
		if err = ret.Validate(); err != nil {
			return ParamType{}, err
		}
		return ret, nil
	}
	return ParamType{}, fmt.Errorf("%w: unknown type '%s'", ErrInvalidType, s)
}
