package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(step*float64(i)))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float32 {
	out := make([]float32, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float32, length int) []float32 {
	out := make([]float32, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Frames splits signal into consecutive frames of frameSize samples. A
// trailing partial frame is dropped.
func Frames(signal []float32, frameSize int) [][]float32 {
	var frames [][]float32
	for off := 0; off+frameSize <= len(signal); off += frameSize {
		frames = append(frames, signal[off:off+frameSize])
	}
	return frames
}

// Convolve returns the full linear convolution of x and h, accumulated in
// float64. It serves as the reference for streaming filters.
func Convolve(x, h []float32) []float32 {
	if len(x) == 0 || len(h) == 0 {
		return nil
	}
	out := make([]float32, len(x)+len(h)-1)
	for n := range out {
		var acc float64
		for k := range h {
			if i := n - k; i >= 0 && i < len(x) {
				acc += float64(h[k]) * float64(x[i])
			}
		}
		out[n] = float32(acc)
	}
	return out
}
