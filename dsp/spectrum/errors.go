package spectrum

import "errors"

var (
	// ErrInvalidFFTSize is returned for FFT sizes that are not a power of two
	// or cannot hold the taps.
	ErrInvalidFFTSize = errors.New("spectrum: invalid FFT size")
	// ErrInvalidInput is returned for empty or too short inputs.
	ErrInvalidInput = errors.New("spectrum: invalid input")
	// ErrInvalidFrequency is returned for frequencies outside [0, fs/2] or a
	// non-positive sample rate.
	ErrInvalidFrequency = errors.New("spectrum: invalid frequency")
)
