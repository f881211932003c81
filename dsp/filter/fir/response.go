package fir

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-firstream/dsp/core"
)

// Response computes the complex frequency response H(e^{-jw}) of taps at
// the given frequency (Hz) and sample rate (Hz).
func Response(taps []float32, freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	var h complex128
	for k, c := range taps {
		h += complex(float64(c), 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return h
}

// MagnitudeDB returns the magnitude response of taps in dB at the given
// frequency.
func MagnitudeDB(taps []float32, freqHz, sampleRate float64) float64 {
	return core.LinearToDB(cmplx.Abs(Response(taps, freqHz, sampleRate)))
}
