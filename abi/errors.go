package abi

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedTag       = errors.New("malformed array tag")
	ErrTrailingData       = errors.New("trailing data after decoding")
	ErrMissingDictKey     = errors.New("missing array index in dictionary")
	ErrArrayLength        = errors.New("wrong array length")
	ErrWrongVersion       = errors.New("wrong ABI version")
	ErrWrongFunctionID    = errors.New("wrong function selector")
	ErrNoSignatureSlot    = errors.New("signature slot reference is missing")
	ErrMalformedSignature = errors.New("malformed signature slot")
	ErrWrongParamCount    = errors.New("wrong number of values")
	ErrTypeMismatch       = errors.New("value does not match parameter type")
	ErrValueOutOfRange    = errors.New("value out of range")
	ErrInvalidType        = errors.New("invalid parameter type")
	ErrSlotState          = errors.New("wrong signature slot state")
	ErrSignatureInvalid   = errors.New("signature is not valid")
)

// ParamError attaches path of the parameter, for example 'inputs[1].items[3]', to the error
type ParamError struct {
	Path string
	Err  error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

func paramError(path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParamError
	if errors.As(err, &pe) {
		return err
	}
	return &ParamError{Path: path, Err: err}
}

func paramErrorf(path string, sentinel error, format string, args ...any) error {
	return &ParamError{Path: path, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}

func itemPath(path string, i int) string {
	return fmt.Sprintf("%s.items[%d]", path, i)
}

func componentPath(path string, p Param, i int) string {
	if p.Name != "" {
		return path + "." + p.Name
	}
	return fmt.Sprintf("%s.%d", path, i)
}
