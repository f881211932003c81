package spectrum

import (
	"fmt"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Response is the frequency response of a tap set on the bins 0..FFTSize/2
// of a zero-padded FFT.
type Response struct {
	FFTSize int
	Bins    []complex128
}

// FrequencyResponse zero-pads taps to fftSize samples and returns the
// non-negative frequency half of its FFT. fftSize must be a power of two no
// smaller than len(taps).
func FrequencyResponse(taps []float32, fftSize int) (*Response, error) {
	if len(taps) == 0 {
		return nil, fmt.Errorf("%w: no taps", ErrInvalidInput)
	}
	if fftSize < len(taps) || fftSize < 2 || bits.OnesCount(uint(fftSize)) != 1 {
		return nil, fmt.Errorf("%w: %d for %d taps", ErrInvalidFFTSize, fftSize, len(taps))
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, fftSize)
	for i, v := range taps {
		padded[i] = complex(float64(v), 0)
	}

	freq := make([]complex128, fftSize)
	if err := plan.Forward(freq, padded); err != nil {
		return nil, fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	return &Response{
		FFTSize: fftSize,
		Bins:    freq[:fftSize/2+1],
	}, nil
}

// NextFFTSize returns the smallest power of two that is at least n and at
// least minSize.
func NextFFTSize(n, minSize int) int {
	size := 1
	for size < n || size < minSize {
		size <<= 1
	}
	return size
}

// Magnitude returns |H| per bin.
func (r *Response) Magnitude() []float64 {
	return Magnitude(r.Bins)
}

// MagnitudeDB returns 20*log10|H| per bin, floored at MinDB.
func (r *Response) MagnitudeDB() []float64 {
	mag := r.Magnitude()
	for i, m := range mag {
		mag[i] = ToDB(m)
	}
	return mag
}

// GroupDelay returns the group delay in samples per bin. A symmetric
// N-tap filter has a constant group delay of (N-1)/2 across its passband.
func (r *Response) GroupDelay() ([]float64, error) {
	return GroupDelayFromPhase(UnwrapPhase(Phase(r.Bins)), r.FFTSize)
}

// BinFrequency returns the centre frequency in Hz of bin.
func (r *Response) BinFrequency(bin int, sampleRate float64) float64 {
	return BinFrequency(bin, r.FFTSize, sampleRate)
}

// Peak returns the bin with the largest magnitude and that magnitude.
func (r *Response) Peak() (bin int, mag float64) {
	for i, m := range r.Magnitude() {
		if m > mag {
			bin, mag = i, m
		}
	}
	return bin, mag
}

// BinFrequency returns the centre frequency in Hz of bin for an
// fftSize-point FFT.
func BinFrequency(bin, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}
	return float64(bin) * sampleRate / float64(fftSize)
}
