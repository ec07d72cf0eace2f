package phase

import "errors"

var (
	// ErrInvalidConfiguration is returned when an option is outside its
	// recognised values (unknown scale, gridsize below 2, empty palette).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyInput is returned when x or y has no samples.
	ErrEmptyInput = errors.New("empty input")

	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrNonPositiveLogInput is returned when an axis binned on a log scale
	// contains a zero or negative sample.
	ErrNonPositiveLogInput = errors.New("non-positive value on logarithmic axis")
)
