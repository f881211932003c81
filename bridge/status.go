package bridge

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-firstream/dsp/filter/fir"
)

// Host status codes. Zero is success, negative values are failures.
const (
	StatusOK               = 0
	StatusInvalidArgument  = -1
	StatusSizeMismatch     = -2
	StatusInvalidFrameSize = -3
	StatusUnknown          = -127
)

// ErrUnknown is returned by Err for codes without a matching engine error.
var ErrUnknown = errors.New("bridge: unknown failure")

// Status maps an engine error to a host status code.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, fir.ErrInvalidArgument):
		return StatusInvalidArgument
	case errors.Is(err, fir.ErrSizeMismatch):
		return StatusSizeMismatch
	case errors.Is(err, fir.ErrInvalidFrameSize):
		return StatusInvalidFrameSize
	default:
		return StatusUnknown
	}
}

// Err maps a host status code back to the engine sentinel error.
func Err(code int) error {
	switch code {
	case StatusOK:
		return nil
	case StatusInvalidArgument:
		return fir.ErrInvalidArgument
	case StatusSizeMismatch:
		return fir.ErrSizeMismatch
	case StatusInvalidFrameSize:
		return fir.ErrInvalidFrameSize
	default:
		return fmt.Errorf("%w: status %d", ErrUnknown, code)
	}
}

// StatusText returns a short name for code.
func StatusText(code int) string {
	switch code {
	case StatusOK:
		return "ok"
	case StatusInvalidArgument:
		return "invalid_argument"
	case StatusSizeMismatch:
		return "size_mismatch"
	case StatusInvalidFrameSize:
		return "invalid_frame_size"
	default:
		return "unknown"
	}
}
