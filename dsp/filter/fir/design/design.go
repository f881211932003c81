package design

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
	"github.com/cwbudde/algo-firstream/dsp/window"
)

var (
	// ErrInvalidTaps is returned for a non-positive tap count.
	ErrInvalidTaps = errors.New("design: taps must be > 0")
	// ErrInvalidSampleRate is returned for a non-positive or non-finite sample rate.
	ErrInvalidSampleRate = errors.New("design: sample rate must be > 0")
	// ErrInvalidBandwidth is returned when the bandwidth is outside (0, fs/2].
	ErrInvalidBandwidth = errors.New("design: bandwidth out of range")
	// ErrInvalidCenter is returned when the centre frequency is outside [0, fs/2].
	ErrInvalidCenter = errors.New("design: center frequency out of range")
)

// Kind classifies a design by its centre frequency.
type Kind int

const (
	KindLowpass Kind = iota
	KindHighpass
	KindBandpass
)

func (k Kind) String() string {
	switch k {
	case KindLowpass:
		return "lowpass"
	case KindHighpass:
		return "highpass"
	case KindBandpass:
		return "bandpass"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Params describes a windowed-sinc design.
type Params struct {
	// CenterHz is 0 for low-pass, SampleRate/2 for high-pass, otherwise
	// the band-pass centre.
	CenterHz float64 `json:"center_hz" yaml:"center_hz" mapstructure:"center_hz"`
	// BandwidthHz is the cut-off for low-pass, the distance of the cut-off
	// below Nyquist for high-pass, and half the -3 dB passband for band-pass.
	BandwidthHz float64 `json:"bandwidth_hz" yaml:"bandwidth_hz" mapstructure:"bandwidth_hz"`
	Taps        int     `json:"taps" yaml:"taps" mapstructure:"taps"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
}

// Kind reports which filter type p describes.
func (p Params) Kind() Kind {
	switch p.CenterHz {
	case 0:
		return KindLowpass
	case p.SampleRate / 2:
		return KindHighpass
	default:
		return KindBandpass
	}
}

// PassbandHz is the frequency at which the design is normalized: DC,
// Nyquist or the band-pass centre.
func (p Params) PassbandHz() float64 {
	switch p.Kind() {
	case KindLowpass:
		return 0
	case KindHighpass:
		return p.SampleRate / 2
	default:
		return p.CenterHz
	}
}

// Validate checks p without designing.
func (p Params) Validate() error {
	if p.Taps <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTaps, p.Taps)
	}
	if !(p.SampleRate > 0) || math.IsInf(p.SampleRate, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRate, p.SampleRate)
	}
	nyquist := p.SampleRate / 2
	if !(p.BandwidthHz > 0) || p.BandwidthHz > nyquist {
		return fmt.Errorf("%w: %g Hz (nyquist %g Hz)", ErrInvalidBandwidth, p.BandwidthHz, nyquist)
	}
	if !(p.CenterHz >= 0) || p.CenterHz > nyquist {
		return fmt.Errorf("%w: %g Hz (nyquist %g Hz)", ErrInvalidCenter, p.CenterHz, nyquist)
	}
	return nil
}

// Option configures a design.
type Option func(*config)

type config struct {
	window    window.Type
	beta      float64
	normalize bool
	logger    *zap.Logger
}

func defaultConfig() config {
	return config{
		window: window.TypeHamming,
		beta:   window.DefaultKaiserBeta,
		logger: zap.NewNop(),
	}
}

// WithWindow selects the window shaping the sinc. The default is Hamming.
func WithWindow(t window.Type) Option {
	return func(c *config) {
		c.window = t
	}
}

// WithKaiserBeta sets beta for a Kaiser window. Negative values are ignored.
func WithKaiserBeta(beta float64) Option {
	return func(c *config) {
		if beta >= 0 {
			c.beta = beta
		}
	}
}

// WithNormalize scales the taps to unity gain at the passband centre.
func WithNormalize() Option {
	return func(c *config) {
		c.normalize = true
	}
}

// WithLogger reports each design at debug level. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Design returns p.Taps coefficients. Tap i is
//
//	yf * yw * 4*df * ys
//
// with df = bw/fs, t = i - taps/2, ys = sin(2 pi df t)/(2 pi df t),
// yw the periodic window at i and yf = cos(2 pi t fc/fs).
func Design(p Params, opts ...Option) ([]float32, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	n := p.Taps
	deltaF := p.BandwidthHz / p.SampleRate
	center := n / 2
	gain := 4 * deltaF

	shaped := make([]float64, n)
	for i := range shaped {
		t := float64(i - center)

		ys := 1.0
		if a := 2 * math.Pi * deltaF * t; a != 0 {
			ys = math.Sin(a) / a
		}
		yf := math.Cos(2 * math.Pi * t * p.CenterHz / p.SampleRate)

		shaped[i] = yf * gain * ys
	}

	yw := window.Generate(cfg.window, n, window.WithPeriodic(), window.WithAlpha(cfg.beta))
	taps64, err := window.ApplyCoefficients(shaped, yw)
	if err != nil {
		return nil, err
	}

	taps := make([]float32, n)
	core.ToFloat32(taps, taps64)

	if cfg.normalize {
		if g := cmplx.Abs(fir.Response(taps, p.PassbandHz(), p.SampleRate)); g > 0 {
			scale := float32(1 / g)
			for i := range taps {
				taps[i] *= scale
			}
		}
	}

	cfg.logger.Debug("fir design",
		zap.Stringer("kind", p.Kind()),
		zap.Float64("center_hz", p.CenterHz),
		zap.Float64("bandwidth_hz", p.BandwidthHz),
		zap.Int("taps", n),
		zap.Float64("sample_rate", p.SampleRate),
		zap.Stringer("window", cfg.window),
		zap.Bool("normalized", cfg.normalize),
	)

	return taps, nil
}

// Lowpass designs a low-pass filter with cut-off cutoffHz.
func Lowpass(cutoffHz float64, taps int, sampleRate float64, opts ...Option) ([]float32, error) {
	return Design(Params{BandwidthHz: cutoffHz, Taps: taps, SampleRate: sampleRate}, opts...)
}

// Highpass designs a high-pass filter with cut-off cutoffHz.
func Highpass(cutoffHz float64, taps int, sampleRate float64, opts ...Option) ([]float32, error) {
	nyquist := sampleRate / 2
	return Design(Params{
		CenterHz:    nyquist,
		BandwidthHz: nyquist - cutoffHz,
		Taps:        taps,
		SampleRate:  sampleRate,
	}, opts...)
}

// Bandpass designs a band-pass filter around centerHz. bandwidthHz is half
// the width of the passband.
func Bandpass(centerHz, bandwidthHz float64, taps int, sampleRate float64, opts ...Option) ([]float32, error) {
	return Design(Params{
		CenterHz:    centerHz,
		BandwidthHz: bandwidthHz,
		Taps:        taps,
		SampleRate:  sampleRate,
	}, opts...)
}

// Stream designs the taps and wraps them in a new fir.Stream.
func Stream(frameSize int, p Params, opts ...Option) (*fir.Stream, error) {
	taps, err := Design(p, opts...)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return fir.NewStream(frameSize, taps, fir.WithLogger(cfg.logger))
}
