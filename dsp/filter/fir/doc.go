// Package fir provides a frame-based streaming FIR filter engine.
//
// A [Stream] convolves fixed-size frames of float32 samples with a set of
// coefficients. The last len(coeffs)-1 input samples of each frame are kept
// in a history buffer and prepended to the next frame, so consecutive calls
// to [Stream.Process] produce the same samples as one linear convolution
// over the concatenated input. Frames are not filtered independently.
//
// The engine is passive: it runs on the calling goroutine and never starts
// goroutines of its own. All state of one Stream is guarded by a single
// per-instance mutex, which makes it safe to call
// [Stream.UpdateCoefficients] from a control goroutine while an audio
// goroutine calls [Stream.Process]. A frame is always convolved with exactly
// one coefficient set.
//
// Direct convolution costs O(frameSize * taps) per frame and suits
// interactive block sizes with filters of a few hundred taps.
//
// Coefficient design (windowed sinc) lives in the design subpackage.
package fir
