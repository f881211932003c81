package window

import "errors"

var (
	// ErrUnknownType is returned by Parse for an unrecognized window name.
	ErrUnknownType = errors.New("window: unknown type")
	// ErrEmptyCoeffs is returned when a window analysis gets no coefficients.
	ErrEmptyCoeffs = errors.New("window: coefficients must not be empty")
	// ErrZeroCoherentGain is returned when a window sums to zero.
	ErrZeroCoherentGain = errors.New("window: coherent gain is zero")
	// ErrMismatchedLength is returned when samples and coefficients differ in length.
	ErrMismatchedLength = errors.New("window: samples and coefficients must have same length")
)
