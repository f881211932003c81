// Package frame computes level statistics of float32 sample frames, either
// for a single frame or accumulated across a stream of frames.
package frame

import (
	"math"

	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/spectrum"
)

// Stats holds level statistics of a block of samples.
type Stats struct {
	Length        int
	DC            float64 // mean
	MeanAbs       float64
	RMS           float64
	Peak          float64 // max |x|
	PeakPos       int
	ZeroCrossings int
}

// LevelDB is the mean absolute amplitude in dB, matching spectrum.LevelDB.
func (s Stats) LevelDB() float64 { return spectrum.ToDB(s.MeanAbs) }

// RMSDB is the RMS level in dB, floored at spectrum.MinDB.
func (s Stats) RMSDB() float64 { return spectrum.ToDB(s.RMS) }

// PeakDB is the peak level in dB, floored at spectrum.MinDB.
func (s Stats) PeakDB() float64 { return spectrum.ToDB(s.Peak) }

// CrestFactorDB is peak over RMS in dB; zero for silence.
func (s Stats) CrestFactorDB() float64 {
	if s.RMS == 0 {
		return 0
	}
	return core.LinearToDB(s.Peak / s.RMS)
}

// Calculate computes the statistics of one frame.
func Calculate(samples []float32) Stats {
	var a Accumulator
	a.Update(samples)
	return a.Result()
}

// Accumulator gathers statistics across frames. Feeding a signal in
// pieces gives the same result as Calculate on the whole signal, with
// zero crossings counted across frame boundaries. The zero value is ready
// to use.
type Accumulator struct {
	n       int
	sum     float64
	sumAbs  float64
	sumSq   float64
	peak    float64
	peakPos int
	zc      int
	last    float32
}

// Update adds samples to the running statistics.
func (a *Accumulator) Update(samples []float32) {
	for _, v := range samples {
		x := float64(v)
		abs := math.Abs(x)

		a.sum += x
		a.sumAbs += abs
		a.sumSq += x * x

		if abs > a.peak {
			a.peak = abs
			a.peakPos = a.n
		}
		if a.n > 0 && a.last*v < 0 {
			a.zc++
		}

		a.last = v
		a.n++
	}
}

// Result returns the statistics of everything seen since the last Reset.
func (a *Accumulator) Result() Stats {
	if a.n == 0 {
		return Stats{}
	}

	nf := float64(a.n)
	return Stats{
		Length:        a.n,
		DC:            a.sum / nf,
		MeanAbs:       a.sumAbs / nf,
		RMS:           math.Sqrt(a.sumSq / nf),
		Peak:          a.peak,
		PeakPos:       a.peakPos,
		ZeroCrossings: a.zc,
	}
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
