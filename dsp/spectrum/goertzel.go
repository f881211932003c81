package spectrum

import (
	"fmt"
	"math"
)

// Goertzel measures a single DFT bin of a running float32 signal.
//
// State accumulates across ProcessBlock calls until Reset, so a signal can
// be fed frame by frame as it leaves a filter stream. Power matches |X[k]|^2
// of a DFT over all samples seen so far.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
	count      int
}

// NewGoertzel creates an analyzer for frequency, which must lie in
// [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidFrequency, sampleRate)
	}
	if !(frequency >= 0) || frequency > sampleRate/2 {
		return nil, fmt.Errorf("%w: %v Hz outside [0, %v]", ErrInvalidFrequency, frequency, sampleRate/2)
	}

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * math.Cos(2*math.Pi*frequency/sampleRate),
	}, nil
}

// Reset clears the internal state.
func (g *Goertzel) Reset() {
	g.s0, g.s1, g.count = 0, 0, 0
}

// ProcessBlock updates the internal state with a block of samples.
func (g *Goertzel) ProcessBlock(input []float32) {
	s0, s1 := g.s0, g.s1

	coeff := g.coeff
	for _, x := range input {
		s := float64(x) + coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	g.s0, g.s1 = s0, s1
	g.count += len(input)
}

// Power returns the squared magnitude of the bin.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Magnitude returns the magnitude of the bin.
func (g *Goertzel) Magnitude() float64 {
	p := g.Power()
	if p <= 0 {
		return 0
	}

	return math.Sqrt(p)
}

// Amplitude returns the peak amplitude of a sinusoid at the analyzer
// frequency, 2*|X[k]|/N, for 0 < f < fs/2.
func (g *Goertzel) Amplitude() float64 {
	if g.count == 0 {
		return 0
	}
	return 2 * g.Magnitude() / float64(g.count)
}

// Frequency returns the target frequency.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// MultiGoertzel runs one Goertzel analyzer per probe frequency over the
// same input.
type MultiGoertzel struct {
	analyzers []*Goertzel
}

// NewMultiGoertzel creates analyzers for frequencies.
func NewMultiGoertzel(frequencies []float64, sampleRate float64) (*MultiGoertzel, error) {
	analyzers := make([]*Goertzel, len(frequencies))
	for i, f := range frequencies {
		g, err := NewGoertzel(f, sampleRate)
		if err != nil {
			return nil, err
		}

		analyzers[i] = g
	}

	return &MultiGoertzel{analyzers: analyzers}, nil
}

// ProcessBlock updates all analyzers with the same input block.
func (m *MultiGoertzel) ProcessBlock(input []float32) {
	for _, g := range m.analyzers {
		g.ProcessBlock(input)
	}
}

// Amplitudes returns the sinusoid amplitude seen by each analyzer.
func (m *MultiGoertzel) Amplitudes() []float64 {
	a := make([]float64, len(m.analyzers))
	for i, g := range m.analyzers {
		a[i] = g.Amplitude()
	}

	return a
}

// Reset resets all analyzers.
func (m *MultiGoertzel) Reset() {
	for _, g := range m.analyzers {
		g.Reset()
	}
}
