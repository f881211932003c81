package audioio

import (
	"errors"
	"fmt"
	"io"
)

// FrameReader cuts a Source into frames of a fixed size. The final
// partial frame is zero-padded.
type FrameReader struct {
	src       Source
	frameSize int
	done      bool
}

// NewFrameReader returns a FrameReader over src.
func NewFrameReader(src Source, frameSize int) (*FrameReader, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameSize, frameSize)
	}
	return &FrameReader{src: src, frameSize: frameSize}, nil
}

// FrameSize returns the number of samples per frame.
func (fr *FrameReader) FrameSize() int { return fr.frameSize }

// Next fills dst, which must hold FrameSize samples, with the next frame
// and returns how many of its samples came from the source. It returns
// io.EOF when no samples are left.
func (fr *FrameReader) Next(dst []float32) (int, error) {
	if len(dst) != fr.frameSize {
		return 0, fmt.Errorf("%w: dst holds %d samples, want %d", ErrInvalidFrameSize, len(dst), fr.frameSize)
	}
	if fr.done {
		return 0, io.EOF
	}

	valid := 0
	for valid < len(dst) {
		n, err := fr.src.ReadSamples(dst[valid:])
		valid += n
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			fr.done = true
			break
		}
		if err != nil {
			return valid, err
		}
	}

	if valid == 0 {
		return 0, io.EOF
	}
	clear(dst[valid:])
	return valid, nil
}
