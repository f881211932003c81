// Package design computes FIR coefficients for [fir.Stream] with the
// windowed-sinc method: a sinc of width set by the bandwidth, shaped by a
// periodic window and shifted to the centre frequency by a cosine.
//
// A centre frequency of 0 yields a low-pass filter, a centre frequency of
// half the sample rate yields a high-pass filter and anything in between a
// band-pass filter. The raw design has roughly unity gain at a band-pass
// centre and twice that for low- and high-pass; [WithNormalize] rescales
// the taps to exactly unity gain at the passband centre.
//
// [fir.Stream]: github.com/cwbudde/algo-firstream/dsp/filter/fir.Stream
package design
