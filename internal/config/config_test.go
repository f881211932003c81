package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/filter/fir/design"
	"github.com/cwbudde/algo-firstream/dsp/window"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Filter.FrameSize != 4410 || cfg.Filter.SampleRate != 44100 {
		t.Fatalf("filter = %+v", cfg.Filter)
	}
	if cfg.Filter.Design.Taps != 256 || cfg.Filter.Design.BandwidthHz != 200 || cfg.Filter.Design.Window != "hamming" {
		t.Fatalf("design = %+v", cfg.Filter.Design)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.QueueSize != 16 || cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Log.Level != "info" || !cfg.Log.Stdout || cfg.Log.File.Enabled {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firstream.yaml")
	content := `
filter:
  frame_size: 512
  coefficients: [0.5, 0.5]
server:
  addr: "127.0.0.1:9000"
  shutdown_timeout: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Filter.FrameSize != 512 {
		t.Errorf("frame_size = %d, want 512", cfg.Filter.FrameSize)
	}
	if len(cfg.Filter.Coefficients) != 2 {
		t.Errorf("coefficients = %v", cfg.Filter.Coefficients)
	}
	// Untouched keys keep their embedded defaults.
	if cfg.Filter.SampleRate != 44100 {
		t.Errorf("sample_rate = %v, want 44100", cfg.Filter.SampleRate)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ShutdownTimeout != 250*time.Millisecond {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FIRSTREAM_FILTER_FRAME_SIZE", "1024")
	t.Setenv("FIRSTREAM_LOG_LEVEL", "debug")
	t.Setenv("FIRSTREAM_FILTER_DESIGN_CENTER_HZ", "1000")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Filter.FrameSize != 1024 {
		t.Errorf("frame_size = %d, want 1024", cfg.Filter.FrameSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Filter.Design.CenterHz != 1000 {
		t.Errorf("design.center_hz = %v, want 1000", cfg.Filter.Design.CenterHz)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	t.Setenv("FIRSTREAM_FILTER_FRAME_SIZE", "0")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidateFrameSizeCap(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.MaxFrameSize = 1000
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestFilterTapsResolution(t *testing.T) {
	presets := []Preset{
		{Name: "avg", Coefficients: []float64{0.5, 0.5}},
		{Name: "voice", Design: DesignConfig{CenterHz: 1000, BandwidthHz: 800, Taps: 64}},
	}
	log := zap.NewNop()

	explicit := FilterConfig{SampleRate: 44100, Preset: "voice", Coefficients: []float64{1, 2, 3}}
	taps, err := explicit.Taps(presets, log)
	if err != nil || len(taps) != 3 || taps[2] != 3 {
		t.Fatalf("explicit taps = %v, err = %v", taps, err)
	}

	preset := FilterConfig{SampleRate: 44100, Preset: "voice"}
	taps, err = preset.Taps(presets, log)
	if err != nil || len(taps) != 64 {
		t.Fatalf("preset taps = %d, err = %v", len(taps), err)
	}

	designed := FilterConfig{SampleRate: 44100, Design: DesignConfig{BandwidthHz: 200, Taps: 32, Window: "blackman"}}
	taps, err = designed.Taps(nil, log)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := design.Lowpass(200, 32, 44100, design.WithWindow(window.TypeBlackman))
	for i := range want {
		if taps[i] != want[i] {
			t.Fatalf("tap %d = %v, want %v", i, taps[i], want[i])
		}
	}

	missing := FilterConfig{SampleRate: 44100, Preset: "nope"}
	if _, err := missing.Taps(presets, log); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("err = %v, want ErrPresetNotFound", err)
	}

	badWindow := FilterConfig{SampleRate: 44100, Design: DesignConfig{BandwidthHz: 200, Taps: 32, Window: "triangle"}}
	if _, err := badWindow.Taps(nil, log); !errors.Is(err, window.ErrUnknownType) {
		t.Fatalf("err = %v, want window.ErrUnknownType", err)
	}
}
