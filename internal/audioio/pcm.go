package audioio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcmReader is the part of the go-audio wav and aiff decoders used here.
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type pcmSource struct {
	dec        pcmReader
	sampleRate int
	channels   int
	scale      float32
	intBuf     *goaudio.IntBuffer
}

func (s *pcmSource) SampleRate() int { return s.sampleRate }
func (s *pcmSource) Channels() int   { return s.channels }
func (s *pcmSource) Close() error    { return nil }

func (s *pcmSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, err
		}
		return 0, io.EOF
	}

	for i := range n {
		dst[i] = float32(s.intBuf.Data[i]) * s.scale
	}

	if err == io.EOF {
		err = nil
	}
	return n, err
}

func pcmScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16, 24, 32:
		return 1 / float32(uint64(1)<<(bitDepth-1)), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func decodeWAV(r io.Reader) (Source, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading wav data: %w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrInvalidFile)
	}
	dec.ReadInfo()

	return newPCMSource(dec, int(dec.BitDepth))
}

func decodeAIFF(r io.Reader) (Source, error) {
	rs, err := readSeeker(r)
	if err != nil {
		return nil, fmt.Errorf("reading aiff data: %w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an aiff file", ErrInvalidFile)
	}
	dec.ReadInfo()

	return newPCMSource(dec, int(dec.BitDepth))
}

func newPCMSource(dec pcmReader, bitDepth int) (Source, error) {
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format chunk", ErrInvalidFile)
	}

	return &pcmSource{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      scale,
	}, nil
}
