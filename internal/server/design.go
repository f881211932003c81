package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-firstream/dsp/spectrum"
	"github.com/cwbudde/algo-firstream/internal/config"
)

const defaultFFTSize = 1024

type designRequest struct {
	config.DesignConfig
	SampleRate float64 `json:"sample_rate"`
	FFTSize    int     `json:"fft_size"`
}

type responsePoint struct {
	Hz float64 `json:"hz"`
	DB float64 `json:"db"`
}

type designResponse struct {
	Kind       string          `json:"kind"`
	PassbandHz float64         `json:"passband_hz"`
	SampleRate float64         `json:"sample_rate"`
	Taps       []float32       `json:"taps"`
	FFTSize    int             `json:"fft_size"`
	PeakHz     float64         `json:"peak_hz"`
	PeakDB     float64         `json:"peak_db"`
	Response   []responsePoint `json:"response"`
}

// handleDesign designs a filter and returns its taps with the magnitude
// response on the FFT bins.
func (h *Handler) handleDesign(c *gin.Context) {
	var req designRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.designError(c, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
		return
	}

	resp, err := h.design(req)
	if err != nil {
		h.designError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) design(req designRequest) (designResponse, error) {
	fs := req.SampleRate
	if fs == 0 {
		fs = h.filter.SampleRate
	}
	if err := h.checkTaps(req.Taps); err != nil {
		return designResponse{}, err
	}

	taps, err := req.Build(fs, h.logger)
	if err != nil {
		return designResponse{}, err
	}

	fftSize := req.FFTSize
	if fftSize == 0 {
		fftSize = spectrum.NextFFTSize(len(taps), defaultFFTSize)
	}
	resp, err := spectrum.FrequencyResponse(taps, fftSize)
	if err != nil {
		return designResponse{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	mags := resp.MagnitudeDB()
	points := make([]responsePoint, len(mags))
	for i, db := range mags {
		points[i] = responsePoint{Hz: resp.BinFrequency(i, fs), DB: db}
	}
	peak, _ := resp.Peak()

	p := req.Params(fs)
	return designResponse{
		Kind:       p.Kind().String(),
		PassbandHz: p.PassbandHz(),
		SampleRate: fs,
		Taps:       taps,
		FFTSize:    fftSize,
		PeakHz:     points[peak].Hz,
		PeakDB:     points[peak].DB,
		Response:   points,
	}, nil
}

func (h *Handler) designError(c *gin.Context, err error) {
	h.logger.Debug("design request rejected", zap.Error(err))
	msg := newErrorMessage(err)
	c.JSON(http.StatusBadRequest, msg)
}
