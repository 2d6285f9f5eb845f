package mega

import "errors"

var (
	// ErrShape is returned when a table does not have the rows or columns
	// the operation requires.
	ErrShape = errors.New("table shape mismatch")

	// ErrOverflow is returned when a row sum does not fit in an int32.
	ErrOverflow = errors.New("row sum overflows int32")

	// ErrNonFinite is returned when the solver yields NaN or an infinity,
	// which cannot be printed with two decimals.
	ErrNonFinite = errors.New("solver result is not finite")

	// ErrUnbound is returned when Run or Send is called before Bind.
	ErrUnbound = errors.New("driver collaborators not bound")
)
