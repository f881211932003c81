package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-firstream/dsp/core"
)

// ErrPresetNotFound is returned by FindPreset for an unknown name.
var ErrPresetNotFound = errors.New("config: preset not found")

// Preset is a named filter: either explicit coefficients or a design.
type Preset struct {
	Name         string       `yaml:"name" json:"name"`
	Description  string       `yaml:"description" json:"description,omitempty"`
	Coefficients []float64    `yaml:"coefficients" json:"coefficients,omitempty"`
	Design       DesignConfig `yaml:",inline" json:"design"`
}

type presetsFile struct {
	Presets []Preset `yaml:"presets"`
}

// Taps returns the preset coefficients, designing them at sampleRate when
// the preset has no explicit list.
func (p Preset) Taps(sampleRate float64, log *zap.Logger) ([]float32, error) {
	if len(p.Coefficients) > 0 {
		taps := make([]float32, len(p.Coefficients))
		core.ToFloat32(taps, p.Coefficients)
		return taps, nil
	}
	taps, err := p.Design.Build(sampleRate, log)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return taps, nil
}

// LoadPresets reads a presets YAML file of the form
//
//	presets:
//	  - name: voice
//	    center_hz: 1000
//	    bandwidth_hz: 800
//	    taps: 256
func LoadPresets(path string) ([]Preset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePresets(data)
}

// ParsePresets decodes presets YAML. Names must be unique and non-empty.
func ParsePresets(data []byte) ([]Preset, error) {
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	seen := make(map[string]bool, len(file.Presets))
	for i, p := range file.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: preset %d has no name", ErrInvalidConfig, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate preset %q", ErrInvalidConfig, name)
		}
		seen[name] = true
		file.Presets[i].Name = name
	}
	return file.Presets, nil
}

// FindPreset returns the preset called name.
func FindPreset(presets []Preset, name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}
