package fir

import "errors"

// Errors returned by Stream.
var (
	ErrInvalidArgument  = errors.New("fir: invalid argument")
	ErrSizeMismatch     = errors.New("fir: frame size mismatch")
	ErrInvalidFrameSize = errors.New("fir: invalid frame size")
)
