package audioio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for formats without a decoder.
	ErrUnsupportedFormat = errors.New("audioio: unsupported format")
	// ErrInvalidFile is returned when the data does not match the format.
	ErrInvalidFile = errors.New("audioio: invalid file")
	// ErrUnsupportedBitDepth is returned for PCM bit depths other than 16, 24 or 32.
	ErrUnsupportedBitDepth = errors.New("audioio: unsupported bit depth")
	// ErrInvalidFrameSize is returned for a non-positive frame size.
	ErrInvalidFrameSize = errors.New("audioio: frame size must be > 0")
)

// Format names a container/codec.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatAIFF Format = "aiff"
	FormatMP3  Format = "mp3"
	FormatOgg  Format = "ogg"
)

// Source yields interleaved float32 samples in [-1, 1].
type Source interface {
	SampleRate() int
	Channels() int
	// ReadSamples fills dst and returns the number of samples written. It
	// returns io.EOF once the stream is exhausted.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

type decodeFunc func(r io.Reader) (Source, error)

var decoders = map[Format]decodeFunc{
	FormatWAV:  decodeWAV,
	FormatAIFF: decodeAIFF,
	FormatMP3:  decodeMP3,
	FormatOgg:  decodeOgg,
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".aif", ".aiff":
		return FormatAIFF, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga":
		return FormatOgg, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

// Decode opens path and returns a mono Source. Closing the Source closes
// the file.
func Decode(path string) (Source, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src, err := DecodeReader(format, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &fileSource{Source: src, file: f}, nil
}

// DecodeReader decodes r as format and returns a mono Source. Multichannel
// input is downmixed by averaging.
func DecodeReader(format Format, r io.Reader) (Source, error) {
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	src, err := decode(r)
	if err != nil {
		return nil, err
	}
	if src.Channels() == 1 {
		return src, nil
	}
	return NewMonoMixer(src), nil
}

type fileSource struct {
	Source
	file *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.file.Close())
}

// ReadAll drains src into a single slice.
func ReadAll(src Source) ([]float32, error) {
	var out []float32
	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil
		}
	}
}
