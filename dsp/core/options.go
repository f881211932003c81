package core

// ProcessorConfig defines the sample rate and frame size shared by a
// streaming filter and the code feeding it.
type ProcessorConfig struct {
	SampleRate float64
	FrameSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns 44.1 kHz with 100 ms frames.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 44100,
		FrameSize:  4410,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithFrameSize sets the number of samples per frame.
func WithFrameSize(frameSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if frameSize > 0 {
			cfg.FrameSize = frameSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// FrameDuration returns the duration of one frame in seconds.
func (c ProcessorConfig) FrameDuration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.FrameSize) / c.SampleRate
}
