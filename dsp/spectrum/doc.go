// Package spectrum analyses FIR coefficients and signal frames in the
// frequency domain.
//
// [FrequencyResponse] evaluates a tap set on a zero-padded FFT grid,
// [Goertzel] measures single bins of a running signal, and [LevelDB] with
// [NormalizeLevel] turn a frame into a meter reading.
package spectrum
