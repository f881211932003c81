package fir

import "go.uber.org/zap"

// Option configures a Stream.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

func defaultConfig() config {
	return config{logger: zap.NewNop()}
}

// WithLogger sets the logger used for size-mismatch diagnostics and
// configuration changes. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
