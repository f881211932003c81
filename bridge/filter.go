package bridge

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/buffer"
	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
)

// Option configures a Filter.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger sets the logger for the filter and its stream. A nil logger
// is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Filter is the host-facing wrapper around a fir.Stream.
type Filter struct {
	stream *fir.Stream
	pool   *buffer.Pool
	logger *zap.Logger

	mu   sync.Mutex
	live map[*buffer.Buffer]struct{}
}

// NewFilter creates a Filter for frames of frameSize samples with the
// given host coefficients.
func NewFilter(frameSize uint32, coeffs []float64, opts ...Option) (*Filter, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	stream, err := fir.NewStream(int(frameSize), toTaps(coeffs), fir.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("bridge: %w", err)
	}

	return &Filter{
		stream: stream,
		pool:   buffer.NewPool(),
		logger: cfg.logger,
		live:   make(map[*buffer.Buffer]struct{}),
	}, nil
}

// UpdateFilter replaces the coefficients and returns a status code.
func (f *Filter) UpdateFilter(coeffs []float64) int {
	err := f.stream.UpdateCoefficients(toTaps(coeffs))
	if err != nil {
		f.logger.Warn("bridge update rejected", zap.Error(err), zap.Int("taps", len(coeffs)))
	}
	return Status(err)
}

// ProcessFrame filters one frame and returns a status code. The engine
// already logs size mismatches.
func (f *Filter) ProcessFrame(frame []float32) int {
	return Status(f.stream.Process(frame))
}

// AcquireOutput returns a pooled buffer holding a copy of the latest
// output frame. It must be returned with ReleaseOutput.
func (f *Filter) AcquireOutput() *buffer.Buffer {
	buf := f.pool.Get(f.stream.FrameSize())
	// Lengths match by construction.
	_ = f.stream.OutputTo(buf.Samples())

	f.mu.Lock()
	f.live[buf] = struct{}{}
	f.mu.Unlock()
	return buf
}

// ReleaseOutput returns a buffer obtained from AcquireOutput and reports a
// status code. Releasing a buffer twice, or one this filter did not hand
// out, yields StatusInvalidArgument and leaves the pool untouched.
func (f *Filter) ReleaseOutput(buf *buffer.Buffer) int {
	f.mu.Lock()
	_, ok := f.live[buf]
	delete(f.live, buf)
	f.mu.Unlock()

	if !ok {
		f.logger.Warn("bridge release rejected", zap.Bool("nil", buf == nil))
		return StatusInvalidArgument
	}
	f.pool.Put(buf)
	return StatusOK
}

// Outstanding returns the number of acquired output buffers not yet released.
func (f *Filter) Outstanding() int64 {
	return f.pool.Outstanding()
}

// Coefficients returns the current taps widened to float64.
func (f *Filter) Coefficients() []float64 {
	taps := f.stream.Coefficients()
	out := make([]float64, len(taps))
	core.ToFloat64(out, taps)
	return out
}

// FrameSize returns the number of samples per frame.
func (f *Filter) FrameSize() uint32 {
	return uint32(f.stream.FrameSize())
}

// Stream returns the underlying engine.
func (f *Filter) Stream() *fir.Stream {
	return f.stream
}

func toTaps(coeffs []float64) []float32 {
	if len(coeffs) == 0 {
		return nil
	}
	taps := make([]float32, len(coeffs))
	core.ToFloat32(taps, coeffs)
	return taps
}
