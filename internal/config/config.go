// Package config loads firstream settings from an embedded default, an
// optional YAML file and FIRSTREAM_* environment variables.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir/design"
	"github.com/cwbudde/algo-firstream/dsp/window"
	"github.com/cwbudde/algo-firstream/internal/logger"
)

//go:embed default.yaml
var defaultYAML []byte

// EnvPrefix prefixes environment overrides, e.g. FIRSTREAM_FILTER_FRAME_SIZE.
const EnvPrefix = "firstream"

// ErrInvalidConfig is returned when loaded settings fail validation.
var ErrInvalidConfig = errors.New("config: invalid")

// DesignConfig describes a windowed-sinc filter design.
type DesignConfig struct {
	CenterHz    float64 `mapstructure:"center_hz" yaml:"center_hz" json:"center_hz"`
	BandwidthHz float64 `mapstructure:"bandwidth_hz" yaml:"bandwidth_hz" json:"bandwidth_hz"`
	Taps        int     `mapstructure:"taps" yaml:"taps" json:"taps"`
	Window      string  `mapstructure:"window" yaml:"window" json:"window"`
	KaiserBeta  float64 `mapstructure:"kaiser_beta" yaml:"kaiser_beta" json:"kaiser_beta"`
	Normalize   bool    `mapstructure:"normalize" yaml:"normalize" json:"normalize"`
}

// Params returns the design parameters at sampleRate.
func (d DesignConfig) Params(sampleRate float64) design.Params {
	return design.Params{
		CenterHz:    d.CenterHz,
		BandwidthHz: d.BandwidthHz,
		Taps:        d.Taps,
		SampleRate:  sampleRate,
	}
}

// Options translates the window and normalization settings into design
// options. An empty window name means Hamming.
func (d DesignConfig) Options(log *zap.Logger) ([]design.Option, error) {
	opts := []design.Option{design.WithLogger(log)}
	if name := strings.TrimSpace(d.Window); name != "" {
		w, err := window.Parse(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, design.WithWindow(w))
	}
	if d.KaiserBeta > 0 {
		opts = append(opts, design.WithKaiserBeta(d.KaiserBeta))
	}
	if d.Normalize {
		opts = append(opts, design.WithNormalize())
	}
	return opts, nil
}

// Build runs the design at sampleRate.
func (d DesignConfig) Build(sampleRate float64, log *zap.Logger) ([]float32, error) {
	opts, err := d.Options(log)
	if err != nil {
		return nil, err
	}
	return design.Design(d.Params(sampleRate), opts...)
}

// FilterConfig selects the frame size and the taps of the stream. Taps
// come from Coefficients when set, otherwise from Preset when set,
// otherwise from Design.
type FilterConfig struct {
	FrameSize    int          `mapstructure:"frame_size"`
	SampleRate   float64      `mapstructure:"sample_rate"`
	Preset       string       `mapstructure:"preset"`
	Coefficients []float64    `mapstructure:"coefficients"`
	Design       DesignConfig `mapstructure:"design"`
}

// ServerConfig configures the streaming server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	QueueSize       int           `mapstructure:"queue_size"`
	MaxFrameSize    int           `mapstructure:"max_frame_size"`
	MaxTaps         int           `mapstructure:"max_taps"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Config is the full application configuration.
type Config struct {
	Filter      FilterConfig  `mapstructure:"filter"`
	Server      ServerConfig  `mapstructure:"server"`
	PresetsFile string        `mapstructure:"presets_file"`
	Log         logger.Config `mapstructure:"log"`
}

// Load reads the embedded defaults, merges the YAML file at path when path
// is non-empty, applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	return decode(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("load embedded config: %w", err)
	}

	v.SetDefault("filter.frame_size", 4410)
	v.SetDefault("filter.sample_rate", 44100)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.queue_size", 16)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that the engine and server rely on.
func (c Config) Validate() error {
	if c.Filter.FrameSize <= 0 {
		return fmt.Errorf("%w: filter.frame_size must be > 0, got %d", ErrInvalidConfig, c.Filter.FrameSize)
	}
	if c.Filter.SampleRate <= 0 {
		return fmt.Errorf("%w: filter.sample_rate must be > 0, got %g", ErrInvalidConfig, c.Filter.SampleRate)
	}
	if c.Server.QueueSize <= 0 {
		return fmt.Errorf("%w: server.queue_size must be > 0, got %d", ErrInvalidConfig, c.Server.QueueSize)
	}
	if c.Server.MaxFrameSize > 0 && c.Filter.FrameSize > c.Server.MaxFrameSize {
		return fmt.Errorf("%w: filter.frame_size %d exceeds server.max_frame_size %d",
			ErrInvalidConfig, c.Filter.FrameSize, c.Server.MaxFrameSize)
	}
	return nil
}

// Taps resolves the configured coefficients: explicit coefficients first,
// then the named preset from presets, then the design section.
func (c FilterConfig) Taps(presets []Preset, log *zap.Logger) ([]float32, error) {
	if len(c.Coefficients) > 0 {
		taps := make([]float32, len(c.Coefficients))
		core.ToFloat32(taps, c.Coefficients)
		return taps, nil
	}

	if name := strings.TrimSpace(c.Preset); name != "" {
		p, err := FindPreset(presets, name)
		if err != nil {
			return nil, err
		}
		return p.Taps(c.SampleRate, log)
	}

	return c.Design.Build(c.SampleRate, log)
}
