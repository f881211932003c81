package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-firstream/bridge"
	"github.com/cwbudde/algo-firstream/dsp/core"
	"github.com/cwbudde/algo-firstream/dsp/filter/fir/design"
	"github.com/cwbudde/algo-firstream/dsp/window"
	"github.com/cwbudde/algo-firstream/internal/config"
)

// Client message types.
const (
	msgConfigure          = "configure"
	msgUpdateCoefficients = "update-coefficients"
	msgDesign             = "design"
	msgReset              = "reset"
	msgFrame              = "frame"
	msgHeartbeat          = "heartbeat"
)

// Server message types.
const (
	msgConfigured = "configured"
	msgOutput     = "output"
	msgError      = "error"
)

var (
	// ErrInvalidMessage is reported for malformed or unknown client messages.
	ErrInvalidMessage = errors.New("server: invalid message")
	// ErrTooManyTaps is reported when a coefficient set exceeds server.max_taps.
	ErrTooManyTaps = errors.New("server: too many taps")
	// ErrFrameTooLarge is reported when a frame size exceeds server.max_frame_size.
	ErrFrameTooLarge = errors.New("server: frame size too large")
)

type incomingMessage struct {
	Type         string               `json:"type"`
	FrameSize    int                  `json:"frame_size,omitempty"`
	SampleRate   float64              `json:"sample_rate,omitempty"`
	Coefficients []float64            `json:"coefficients,omitempty"`
	Preset       string               `json:"preset,omitempty"`
	Design       *config.DesignConfig `json:"design,omitempty"`
	Samples      []float32            `json:"samples,omitempty"`
}

type configuredMessage struct {
	Type       string  `json:"type"`
	SessionID  string  `json:"session_id"`
	FrameSize  int     `json:"frame_size"`
	Taps       int     `json:"taps"`
	SampleRate float64 `json:"sample_rate"`
	Generation uint64  `json:"generation"`
}

type outputMessage struct {
	Type       string    `json:"type"`
	Seq        uint64    `json:"seq"`
	Samples    []float32 `json:"samples"`
	Generation uint64    `json:"generation"`
	LevelDB    float64   `json:"level_db"`
	RMSDB      float64   `json:"rms_db"`
	PeakDB     float64   `json:"peak_db"`
	Meter      float64   `json:"meter"`
	Dropped    uint64    `json:"dropped"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newErrorMessage(err error) errorMessage {
	code := statusOf(err)
	return errorMessage{
		Type:    msgError,
		Code:    code,
		Status:  bridge.StatusText(code),
		Message: err.Error(),
	}
}

// statusOf extends bridge.Status with the errors raised outside the engine.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrFrameTooLarge):
		return bridge.StatusInvalidFrameSize
	case errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrTooManyTaps),
		errors.Is(err, config.ErrPresetNotFound),
		errors.Is(err, window.ErrUnknownType),
		errors.Is(err, design.ErrInvalidTaps),
		errors.Is(err, design.ErrInvalidSampleRate),
		errors.Is(err, design.ErrInvalidBandwidth),
		errors.Is(err, design.ErrInvalidCenter):
		return bridge.StatusInvalidArgument
	default:
		return bridge.Status(err)
	}
}

// decodeBinaryFrame reads little-endian IEEE 754 float32 samples.
func decodeBinaryFrame(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: binary frame of %d bytes is not a multiple of 4", ErrInvalidMessage, len(data))
	}
	frame := make([]float32, len(data)/4)
	for i := range frame {
		frame[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return frame, nil
}

func toTaps(coeffs []float64) []float32 {
	taps := make([]float32, len(coeffs))
	core.ToFloat32(taps, coeffs)
	return taps
}
