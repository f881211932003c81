package audioio

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-firstream/dsp/core"
)

// WAVWriter streams mono float32 frames into a 16-bit PCM WAV file.
// Samples outside [-1, 1] are clamped.
type WAVWriter struct {
	enc *wav.Encoder
	buf *goaudio.IntBuffer
}

// NewWAVWriter writes the WAV header to w. Close must be called to
// finalize the chunk sizes.
func NewWAVWriter(w io.WriteSeeker, sampleRate int) *WAVWriter {
	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, 16, 1, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Write appends samples.
func (ww *WAVWriter) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	if cap(ww.buf.Data) < len(samples) {
		ww.buf.Data = make([]int, len(samples))
	}
	ww.buf.Data = ww.buf.Data[:len(samples)]

	for i, v := range samples {
		ww.buf.Data[i] = int(math.Round(core.Clamp(float64(v), -1, 1) * 32767))
	}

	if err := ww.enc.Write(ww.buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

// Close finalizes the file header. It does not close the underlying writer.
func (ww *WAVWriter) Close() error {
	if err := ww.enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// WriteWAV writes samples as a complete mono 16-bit WAV file.
func WriteWAV(w io.WriteSeeker, sampleRate int, samples []float32) error {
	ww := NewWAVWriter(w, sampleRate)
	if err := ww.Write(samples); err != nil {
		return err
	}
	return ww.Close()
}
