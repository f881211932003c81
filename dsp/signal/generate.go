package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-firstream/dsp/core"
)

var (
	// ErrInvalidLength is returned for a non-positive sample count.
	ErrInvalidLength = errors.New("signal: samples must be > 0")
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("signal: sample rate must be > 0")
	// ErrInvalidAmplitude is returned for a negative amplitude.
	ErrInvalidAmplitude = errors.New("signal: amplitude must be >= 0")
	// ErrInvalidFrequency is returned for sweep bounds that are not
	// 0 < start < end <= fs/2.
	ErrInvalidFrequency = errors.New("signal: invalid frequency")
)

// Generator creates deterministic float32 test signals from a shared
// processor configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return NewGeneratorWithOptions(opts)
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

func (g *Generator) check(samples int) error {
	if samples <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, samples)
	}
	if g.cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: %f", ErrInvalidSampleRate, g.cfg.SampleRate)
	}
	return nil
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float32, error) {
	if err := g.check(samples); err != nil {
		return nil, err
	}
	out := make([]float32, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(step*float64(i)))
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float32, error) {
	if err := g.check(samples); err != nil {
		return nil, err
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidAmplitude, amplitude)
	}
	out := make([]float32, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out, nil
}

// LogSweep generates an exponential sine sweep whose instantaneous
// frequency rises from startHz to endHz over the given number of samples:
//
//	f(t) = f1 * exp(t/T * ln(f2/f1))
//	x(t) = A * sin(2 pi f1 T / ln(f2/f1) * (exp(t/T * ln(f2/f1)) - 1))
func (g *Generator) LogSweep(startHz, endHz, amplitude float64, samples int) ([]float32, error) {
	if err := g.check(samples); err != nil {
		return nil, err
	}
	if !(startHz > 0) || !(endHz > startHz) || endHz > g.cfg.SampleRate/2 {
		return nil, fmt.Errorf("%w: sweep %g..%g Hz at %g Hz", ErrInvalidFrequency, startHz, endHz, g.cfg.SampleRate)
	}

	out := make([]float32, samples)
	duration := float64(samples) / g.cfg.SampleRate
	lnRatio := math.Log(endHz / startHz)
	k := 2 * math.Pi * startHz * duration / lnRatio

	for i := range out {
		t := float64(i) / g.cfg.SampleRate
		out[i] = float32(amplitude * math.Sin(k*(math.Exp(t/duration*lnRatio)-1)))
	}
	return out, nil
}

// SweepFrequency returns the instantaneous frequency of a LogSweep with the
// same bounds at sample i of samples.
func SweepFrequency(startHz, endHz float64, i, samples int) float64 {
	if samples <= 0 {
		return startHz
	}
	return startHz * math.Exp(float64(i)/float64(samples)*math.Log(endHz/startHz))
}

// Normalize scales data to targetPeak in place and returns the applied gain.
func Normalize(data []float32, targetPeak float64) (float64, error) {
	if targetPeak < 0 {
		return 0, fmt.Errorf("%w: target peak %f", ErrInvalidAmplitude, targetPeak)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidLength)
	}

	peak := 0.0
	for _, v := range data {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 {
		return 1, nil
	}

	gain := targetPeak / peak
	for i, v := range data {
		data[i] = float32(float64(v) * gain)
	}
	return gain, nil
}
