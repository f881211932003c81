package design

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
	"github.com/cwbudde/algo-firstream/dsp/window"
	"github.com/cwbudde/algo-firstream/internal/testutil"
)

const fs = 44100.0

func TestDesign_Formula(t *testing.T) {
	p := Params{CenterHz: 1000, BandwidthHz: 200, Taps: 16, SampleRate: fs}
	taps, err := Design(p)
	if err != nil {
		t.Fatal(err)
	}

	df := p.BandwidthHz / fs
	for i, got := range taps {
		shift := float64(i - 8)
		ys := 1.0
		if a := 2 * math.Pi * df * shift; a != 0 {
			ys = math.Sin(a) / a
		}
		yw := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/16)
		yf := math.Cos(2 * math.Pi * shift * p.CenterHz / fs)
		want := yf * yw * 4 * df * ys
		if math.Abs(float64(got)-want) > 1e-7 {
			t.Fatalf("tap %d = %v, want %v", i, got, want)
		}
	}
}

func TestDesign_LinearPhaseSymmetry(t *testing.T) {
	// The periodic window and the sinc are both even around taps/2, so
	// taps[n/2-k] == taps[n/2+k].
	taps, err := Bandpass(3000, 400, 128, fs)
	if err != nil {
		t.Fatal(err)
	}
	for k := 1; k < 64; k++ {
		if math.Abs(float64(taps[64-k]-taps[64+k])) > 1e-7 {
			t.Fatalf("asymmetric at k=%d: %v vs %v", k, taps[64-k], taps[64+k])
		}
	}
}

func TestDesign_NormalizedResponses(t *testing.T) {
	tests := []struct {
		name     string
		design   func() ([]float32, error)
		passHz   float64
		stopHz   []float64
		wantKind Kind
	}{
		{
			name:   "lowpass",
			design: func() ([]float32, error) { return Lowpass(2000, 256, fs, WithNormalize()) },
			passHz: 0,
			stopHz: []float64{8000, 15000},
		},
		{
			name:   "highpass",
			design: func() ([]float32, error) { return Highpass(fs/2-2000, 256, fs, WithNormalize()) },
			passHz: fs / 2,
			stopHz: []float64{0, 5000},
		},
		{
			name:   "bandpass",
			design: func() ([]float32, error) { return Bandpass(5000, 500, 256, fs, WithNormalize()) },
			passHz: 5000,
			stopHz: []float64{0, 15000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taps, err := tt.design()
			if err != nil {
				t.Fatal(err)
			}
			testutil.RequireFinite(t, taps)

			if db := fir.MagnitudeDB(taps, tt.passHz, fs); math.Abs(db) > 0.01 {
				t.Errorf("passband gain = %.4f dB, want 0", db)
			}
			for _, f := range tt.stopHz {
				if db := fir.MagnitudeDB(taps, f, fs); db > -40 {
					t.Errorf("stopband %g Hz = %.1f dB, want < -40", f, db)
				}
			}
		})
	}
}

func TestDesign_NormalizeScalesDesignedTaps(t *testing.T) {
	p := Params{CenterHz: 3000, BandwidthHz: 400, Taps: 128, SampleRate: fs}
	raw, err := Design(p)
	if err != nil {
		t.Fatal(err)
	}
	norm, err := Design(p, WithNormalize())
	if err != nil {
		t.Fatal(err)
	}

	gain := cmplx.Abs(fir.Response(raw, p.PassbandHz(), fs))
	for i := range raw {
		want := float64(raw[i]) / gain
		if math.Abs(float64(norm[i])-want) > 1e-6*math.Max(1, math.Abs(want)) {
			t.Fatalf("tap %d = %g, want %g", i, norm[i], want)
		}
	}
	if g := cmplx.Abs(fir.Response(norm, p.PassbandHz(), fs)); math.Abs(g-1) > 1e-5 {
		t.Errorf("normalized passband gain = %v, want 1", g)
	}
}

func TestDesign_Windows(t *testing.T) {
	for _, w := range []window.Type{window.TypeRectangular, window.TypeHann, window.TypeBlackman, window.TypeKaiser} {
		t.Run(w.String(), func(t *testing.T) {
			taps, err := Lowpass(1000, 64, fs, WithWindow(w), WithKaiserBeta(6))
			if err != nil {
				t.Fatal(err)
			}
			if len(taps) != 64 {
				t.Fatalf("len = %d, want 64", len(taps))
			}
			testutil.RequireFinite(t, taps)
		})
	}

	hamming, _ := Lowpass(1000, 64, fs)
	rect, _ := Lowpass(1000, 64, fs, WithWindow(window.TypeRectangular))
	if hamming[0] == rect[0] {
		t.Fatal("window choice had no effect")
	}
}

func TestDesign_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{"zero taps", Params{BandwidthHz: 100, Taps: 0, SampleRate: fs}, ErrInvalidTaps},
		{"zero rate", Params{BandwidthHz: 100, Taps: 8}, ErrInvalidSampleRate},
		{"nan rate", Params{BandwidthHz: 100, Taps: 8, SampleRate: math.NaN()}, ErrInvalidSampleRate},
		{"zero bandwidth", Params{Taps: 8, SampleRate: fs}, ErrInvalidBandwidth},
		{"bandwidth above nyquist", Params{BandwidthHz: fs, Taps: 8, SampleRate: fs}, ErrInvalidBandwidth},
		{"negative center", Params{CenterHz: -1, BandwidthHz: 100, Taps: 8, SampleRate: fs}, ErrInvalidCenter},
		{"center above nyquist", Params{CenterHz: fs, BandwidthHz: 100, Taps: 8, SampleRate: fs}, ErrInvalidCenter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Design(tt.p); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParamsKind(t *testing.T) {
	tests := []struct {
		p    Params
		want Kind
	}{
		{Params{CenterHz: 0, SampleRate: fs}, KindLowpass},
		{Params{CenterHz: fs / 2, SampleRate: fs}, KindHighpass},
		{Params{CenterHz: 1000, SampleRate: fs}, KindBandpass},
	}
	for _, tt := range tests {
		if got := tt.p.Kind(); got != tt.want {
			t.Errorf("Kind(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDesign_LogsKind(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	if _, err := Highpass(20000, 32, fs, WithLogger(zap.New(core))); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterMessage("fir design").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if kind := entries[0].ContextMap()["kind"]; kind != "highpass" {
		t.Errorf("logged kind = %v, want highpass", kind)
	}
}

func TestStream(t *testing.T) {
	s, err := Stream(4410, Params{BandwidthHz: 200, Taps: 256, SampleRate: fs})
	if err != nil {
		t.Fatal(err)
	}
	if s.FrameSize() != 4410 || s.Taps() != 256 {
		t.Fatalf("FrameSize=%d Taps=%d", s.FrameSize(), s.Taps())
	}

	if _, err := Stream(4410, Params{Taps: 256, SampleRate: fs}); !errors.Is(err, ErrInvalidBandwidth) {
		t.Fatalf("err = %v, want ErrInvalidBandwidth", err)
	}
	if _, err := Stream(0, Params{BandwidthHz: 200, Taps: 16, SampleRate: fs}); !errors.Is(err, fir.ErrInvalidFrameSize) {
		t.Fatalf("err = %v, want fir.ErrInvalidFrameSize", err)
	}
}
