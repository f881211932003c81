package fir

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Stream is a streaming direct-form FIR filter over fixed-size frames.
//
// The history buffer holds len(coeffs)-1 samples carried over from the
// previous frame followed by the current frame:
//
//	history = [ tail of previous input (N-1) | current frame (frameSize) ]
//	y[i]    = sum_{j=0}^{N-1} h[j] * history[N-1+i-j]
//
// All methods are safe for concurrent use.
type Stream struct {
	mu sync.Mutex

	frameSize  int
	coeffs     []float32
	history    []float32
	output     []float32
	generation uint64

	logger *zap.Logger
}

// NewStream creates a Stream that filters frames of frameSize samples with
// the given coefficients. The coefficients are copied. The first frame is
// filtered as if it were preceded by len(coeffs)-1 zero samples.
func NewStream(frameSize int, coeffs []float32, opts ...Option) (*Stream, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidFrameSize, frameSize)
	}
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: empty coefficients", ErrInvalidArgument)
	}

	cfg := applyOptions(opts)

	s := &Stream{
		frameSize: frameSize,
		output:    make([]float32, frameSize),
		logger:    cfg.logger,
	}
	s.setCoefficients(coeffs)

	s.logger.Debug("fir stream created",
		zap.Int("frame_size", frameSize),
		zap.Int("taps", len(coeffs)),
	)

	return s, nil
}

// setCoefficients installs coeffs. A different tap count reallocates the
// history buffer, which discards the carried samples. The caller must hold
// s.mu once the Stream is shared.
func (s *Stream) setCoefficients(coeffs []float32) {
	if len(coeffs) != len(s.coeffs) {
		s.coeffs = make([]float32, len(coeffs))
		s.history = make([]float32, s.frameSize+len(coeffs)-1)
	}
	copy(s.coeffs, coeffs)
}

// UpdateCoefficients replaces the coefficient set.
//
// When the tap count changes the history is reset to silence, so the
// frame after the update does not continue the previous one. With an
// unchanged tap count the history is kept and filtering continues
// seamlessly with the new taps. On error the Stream is left untouched.
func (s *Stream) UpdateCoefficients(coeffs []float32) error {
	if len(coeffs) == 0 {
		return fmt.Errorf("%w: empty coefficients", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := len(s.coeffs)
	s.setCoefficients(coeffs)
	s.generation++

	s.logger.Debug("fir coefficients updated",
		zap.Int("previous_taps", prev),
		zap.Int("taps", len(coeffs)),
		zap.Bool("history_reset", prev != len(coeffs)),
		zap.Uint64("generation", s.generation),
	)

	return nil
}

// Process filters one frame. The frame must hold exactly FrameSize samples;
// otherwise ErrSizeMismatch is returned and the previous output is kept.
func (s *Stream) Process(frame []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.process(frame)
}

// ProcessTo filters one frame and copies the result into dst while still
// holding the lock, so the output belongs to exactly this frame even when
// other goroutines process concurrently. Both slices must hold FrameSize
// samples.
func (s *Stream) ProcessTo(dst, frame []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(dst) != s.frameSize {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrSizeMismatch, s.frameSize, len(dst))
	}
	if err := s.process(frame); err != nil {
		return err
	}
	copy(dst, s.output)

	return nil
}

func (s *Stream) process(frame []float32) error {
	if len(frame) != s.frameSize {
		s.logger.Warn("fir frame size mismatch",
			zap.Int("expected", s.frameSize),
			zap.Int("actual", len(frame)),
		)
		return fmt.Errorf("%w: expected %d samples, got %d", ErrSizeMismatch, s.frameSize, len(frame))
	}

	start := len(s.coeffs) - 1

	// Slide the carried tail to the front before appending the new frame.
	// copy has memmove semantics, so this is safe even when start exceeds
	// frameSize and the ranges overlap.
	copy(s.history[:start], s.history[s.frameSize:])
	copy(s.history[start:], frame)

	coeffs := s.coeffs
	for i := range s.output {
		window := s.history[i : i+start+1]
		var acc float32
		for j, c := range coeffs {
			acc += window[start-j] * c
		}
		s.output[i] = acc
	}

	return nil
}

// Output returns a copy of the most recent output frame. Before the first
// successful Process call it is all zeros.
func (s *Stream) Output() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float32, len(s.output))
	copy(out, s.output)
	return out
}

// OutputTo copies the most recent output frame into dst, which must hold
// FrameSize samples.
func (s *Stream) OutputTo(dst []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(dst) != len(s.output) {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrSizeMismatch, len(s.output), len(dst))
	}
	copy(dst, s.output)
	return nil
}

// Reset clears the history and output, as if the Stream had just been
// created with its current coefficients.
func (s *Stream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.history)
	clear(s.output)
}

// FrameSize returns the number of samples per frame.
func (s *Stream) FrameSize() int {
	return s.frameSize
}

// Taps returns the current number of coefficients.
func (s *Stream) Taps() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.coeffs)
}

// Generation returns the number of successful coefficient updates.
func (s *Stream) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

// Coefficients returns a copy of the current coefficients.
func (s *Stream) Coefficients() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := make([]float32, len(s.coeffs))
	copy(c, s.coeffs)
	return c
}

// Response computes the frequency response of the current coefficients.
func (s *Stream) Response(freqHz, sampleRate float64) complex128 {
	return Response(s.Coefficients(), freqHz, sampleRate)
}

// MagnitudeDB returns the magnitude response of the current coefficients
// in dB.
func (s *Stream) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return MagnitudeDB(s.Coefficients(), freqHz, sampleRate)
}
