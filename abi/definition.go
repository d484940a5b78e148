package abi

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

type (
	// ParamDefinition is YAML form of a parameter. Tuples are given as type 'tuple' with optional
	// array suffix, for example 'tuple[]', and named components
	ParamDefinition struct {
		Name       string            `yaml:"name"`
		Type       string            `yaml:"type"`
		Components []ParamDefinition `yaml:"components,omitempty"`
	}

	FunctionDefinition struct {
		Name    string            `yaml:"name"`
		Inputs  []ParamDefinition `yaml:"inputs"`
		Outputs []ParamDefinition `yaml:"outputs"`
	}

	Definitions struct {
		Version   byte                 `yaml:"version"`
		Functions []FunctionDefinition `yaml:"functions"`
	}
)

const tuplePrefix = "tuple"

func (d *ParamDefinition) Param() (Param, error) {
	typeStr := strings.ReplaceAll(d.Type, " ", "")
	if !strings.HasPrefix(typeStr, tuplePrefix) {
		if len(d.Components) > 0 {
			return Param{}, fmt.Errorf("%w: components given for non-tuple '%s'", ErrInvalidType, d.Name)
		}
		t, err := ParseType(typeStr)
		if err != nil {
			return Param{}, fmt.Errorf("parameter '%s': %w", d.Name, err)
		}
		return NewParam(d.Name, t), nil
	}
	components, err := paramsFromDefinitions(d.Components)
	if err != nil {
		return Param{}, fmt.Errorf("parameter '%s': %w", d.Name, err)
	}
	p := &typeParser{s: typeStr, pos: len(tuplePrefix)}
	t, err := p.parseArraySuffix(Tuple(components...))
	if err != nil {
		return Param{}, fmt.Errorf("parameter '%s': %w", d.Name, err)
	}
	if p.pos != len(p.s) {
		return Param{}, fmt.Errorf("%w: parameter '%s': unexpected '%s'", ErrInvalidType, d.Name, p.s[p.pos:])
	}
	return NewParam(d.Name, t), nil
}

func paramsFromDefinitions(defs []ParamDefinition) ([]Param, error) {
	ret := make([]Param, len(defs))
	names := make(map[string]struct{})
	for i := range defs {
		p, err := defs[i].Param()
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("value%d", i)
		}
		if _, dup := names[p.Name]; dup {
			return nil, fmt.Errorf("%w: repeating parameter name '%s'", ErrInvalidType, p.Name)
		}
		names[p.Name] = struct{}{}
		ret[i] = p
	}
	return ret, nil
}

func (d *FunctionDefinition) Function() (*Function, error) {
	inputs, err := paramsFromDefinitions(d.Inputs)
	if err != nil {
		return nil, fmt.Errorf("function '%s' inputs: %w", d.Name, err)
	}
	outputs, err := paramsFromDefinitions(d.Outputs)
	if err != nil {
		return nil, fmt.Errorf("function '%s' outputs: %w", d.Name, err)
	}
	return NewFunction(d.Name, inputs, outputs)
}

// ParseDefinitionsYAML parses list of function definitions
func ParseDefinitionsYAML(data []byte) (*Definitions, map[string]*Function, error) {
	var defs Definitions
	if err := yaml.UnmarshalStrict(data, &defs); err != nil {
		return nil, nil, err
	}
	ret := make(map[string]*Function)
	for i := range defs.Functions {
		f, err := defs.Functions[i].Function()
		if err != nil {
			return nil, nil, err
		}
		if _, already := ret[f.Name]; already {
			return nil, nil, fmt.Errorf("ParseDefinitionsYAML: repeating function '%s'", f.Name)
		}
		ret[f.Name] = f
	}
	return &defs, ret, nil
}

func paramDefinitions(params []Param) []ParamDefinition {
	ret := make([]ParamDefinition, len(params))
	for i, p := range params {
		ret[i] = ParamDefinition{Name: p.Name}
		elem, suffix := p.Type, ""
		for elem.Kind == KindFixedArray || elem.Kind == KindDynamicArray {
			if elem.Kind == KindFixedArray {
				suffix = fmt.Sprintf("[%d]", elem.Size) + suffix
			} else {
				suffix = "[]" + suffix
			}
			elem = *elem.Elem
		}
		if elem.Kind == KindTuple {
			ret[i].Type = tuplePrefix + suffix
			ret[i].Components = paramDefinitions(elem.Components)
		} else {
			ret[i].Type = p.Type.Signature()
		}
	}
	return ret
}

// Definition is the YAML form of the function, accepted back by ParseDefinitionsYAML
func (f *Function) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:    f.Name,
		Inputs:  paramDefinitions(f.Inputs),
		Outputs: paramDefinitions(f.Outputs),
	}
}

func (d *Definitions) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}
