package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/filter/fir/design"
)

const presetsYAML = `
presets:
  - name: telephone
    description: 300-3400 Hz band
    center_hz: 1850
    bandwidth_hz: 1550
    taps: 128
    window: hann
    normalize: true
  - name: " smooth "
    coefficients: [0.25, 0.5, 0.25]
`

func TestParsePresets(t *testing.T) {
	presets, err := ParsePresets([]byte(presetsYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets, want 2", len(presets))
	}

	tel := presets[0]
	if tel.Design.CenterHz != 1850 || tel.Design.Taps != 128 || !tel.Design.Normalize || tel.Design.Window != "hann" {
		t.Fatalf("telephone = %+v", tel)
	}
	if presets[1].Name != "smooth" {
		t.Fatalf("name not trimmed: %q", presets[1].Name)
	}

	taps, err := tel.Taps(44100, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(taps) != 128 {
		t.Fatalf("len = %d, want 128", len(taps))
	}

	smooth, err := FindPreset(presets, "smooth")
	if err != nil {
		t.Fatal(err)
	}
	taps, _ = smooth.Taps(44100, zap.NewNop())
	if len(taps) != 3 || taps[1] != 0.5 {
		t.Fatalf("smooth taps = %v", taps)
	}
}

func TestParsePresetsErrors(t *testing.T) {
	tests := map[string]string{
		"unnamed":   "presets:\n  - taps: 8\n",
		"duplicate": "presets:\n  - name: a\n  - name: a\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePresets([]byte(doc)); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := ParsePresets([]byte("presets: [")); err == nil {
		t.Fatal("expected YAML syntax error")
	}
}

func TestPresetDesignErrorNamesPreset(t *testing.T) {
	p := Preset{Name: "broken", Design: DesignConfig{Taps: 0, BandwidthHz: 100}}
	_, err := p.Taps(44100, zap.NewNop())
	if !errors.Is(err, design.ErrInvalidTaps) {
		t.Fatalf("err = %v, want design.ErrInvalidTaps", err)
	}
}

func TestLoadPresets(t *testing.T) {
	if presets, err := LoadPresets(""); err != nil || presets != nil {
		t.Fatalf("empty path: %v, %v", presets, err)
	}

	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(presetsYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	presets, err := LoadPresets(path)
	if err != nil || len(presets) != 2 {
		t.Fatalf("LoadPresets = %v, %v", presets, err)
	}

	if _, err := LoadPresets(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}
