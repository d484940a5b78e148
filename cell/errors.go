package cell

import "errors"

var (
	ErrCapacityExceeded     = errors.New("cell capacity exceeded")
	ErrTooManyReferences    = errors.New("too many cell references")
	ErrUnderrun             = errors.New("not enough bits in the cell")
	ErrNoReferenceAvailable = errors.New("no reference available in the cell")
	ErrBuilderFinalized     = errors.New("builder already finalized")
)
