package audioio

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// mp3Source adapts go-mp3, which always yields 16-bit little-endian stereo.
type mp3Source struct {
	dec        io.Reader
	sampleRate int
	buf        []byte
}

func (s *mp3Source) SampleRate() int { return s.sampleRate }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Close() error    { return nil }

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	samples := n / 2
	for i := range samples {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))) / 32768
	}

	if samples > 0 && err == io.EOF {
		return samples, nil
	}
	return samples, err
}

func decodeMP3(r io.Reader) (Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrInvalidFile, err)
	}

	return &mp3Source{dec: dec, sampleRate: dec.SampleRate()}, nil
}

// oggReader is the part of oggvorbis.Reader used here. Read returns the
// number of interleaved values written.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type oggSource struct {
	dec oggReader
}

func (s *oggSource) SampleRate() int { return s.dec.SampleRate() }
func (s *oggSource) Channels() int   { return s.dec.Channels() }
func (s *oggSource) Close() error    { return nil }

func (s *oggSource) ReadSamples(dst []float32) (int, error) {
	// Keep reads aligned to whole sample frames.
	ch := s.dec.Channels()
	dst = dst[:len(dst)/ch*ch]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	if n > 0 && err == io.EOF {
		return n, nil
	}
	return n, err
}

func decodeOgg(r io.Reader) (Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: ogg: %w", ErrInvalidFile, err)
	}
	if dec.Channels() <= 0 {
		return nil, fmt.Errorf("%w: ogg: no channels", ErrInvalidFile)
	}

	return &oggSource{dec: dec}, nil
}
