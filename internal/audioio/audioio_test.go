package audioio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// sliceSource serves fixed interleaved samples in chunks of at most step.
type sliceSource struct {
	samples  []float32
	channels int
	step     int
	offset   int
	closed   bool
}

func (s *sliceSource) SampleRate() int { return 8000 }
func (s *sliceSource) Channels() int   { return s.channels }
func (s *sliceSource) Close() error    { s.closed = true; return nil }

func (s *sliceSource) ReadSamples(dst []float32) (int, error) {
	if s.offset >= len(s.samples) {
		return 0, io.EOF
	}
	n := len(dst)
	if s.step > 0 && n > s.step {
		n = s.step
	}
	n = copy(dst[:n], s.samples[s.offset:])
	s.offset += n
	return n, nil
}

// mockPCM mimics the go-audio decoders.
type mockPCM struct {
	channels int
	samples  []int
	offset   int
	fail     bool
}

func (m *mockPCM) Format() *goaudio.Format {
	return &goaudio.Format{SampleRate: 44100, NumChannels: m.channels}
}

func (m *mockPCM) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.fail {
		return 0, io.ErrUnexpectedEOF
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.wav", FormatWAV},
		{"dir/B.WAV", FormatWAV},
		{"x.wave", FormatWAV},
		{"x.aif", FormatAIFF},
		{"x.aiff", FormatAIFF},
		{"song.mp3", FormatMP3},
		{"song.ogg", FormatOgg},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if err != nil {
			t.Fatalf("FormatFromPath(%q): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if _, err := FormatFromPath("notes.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeReaderUnknownFormat(t *testing.T) {
	if _, err := DecodeReader("flac", bytes.NewReader(nil)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeReaderRejectsGarbage(t *testing.T) {
	garbage := []byte("this is not audio data at all")

	for _, f := range []Format{FormatWAV, FormatAIFF, FormatMP3, FormatOgg} {
		if _, err := DecodeReader(f, bytes.NewReader(garbage)); err == nil {
			t.Errorf("%s: expected error for garbage input", f)
		}
	}

	if _, err := DecodeReader(FormatWAV, bytes.NewReader(garbage)); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("wav: expected ErrInvalidFile, got %v", err)
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	in := make([]float32, 1000)
	for i := range in {
		in[i] = float32(0.5 * math.Sin(2*math.Pi*float64(i)/50))
	}
	in[10] = 2 // clamps to full scale
	in[11] = -2

	if err := WriteWAV(f, 16000, in); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 16000 {
		t.Fatalf("sample rate = %d, want 16000", src.SampleRate())
	}
	if src.Channels() != 1 {
		t.Fatalf("channels = %d, want 1", src.Channels())
	}

	out, err := ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d samples, want %d", len(out), len(in))
	}

	const tol = 2.0 / 32768
	for i := range in {
		want := math.Max(-1, math.Min(1, float64(in[i])))
		if !almostEqual(float64(out[i]), want, tol) {
			t.Fatalf("sample %d = %v, want %v", i, out[i], want)
		}
	}
}

func TestDecodeStereoWAVDownmixes(t *testing.T) {
	var buf seekBuffer
	enc := wav.NewEncoder(&buf, 8000, 16, 2, 1)
	data := []int{16384, 0, -16384, -16384, 8192, 24576}
	err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := DecodeReader(FormatWAV, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeReader: %v", err)
	}
	if src.Channels() != 1 {
		t.Fatalf("channels = %d, want 1", src.Channels())
	}

	out, err := ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.25, -0.5, 0.5}
	if len(out) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out), len(want))
	}
	for i, w := range want {
		if !almostEqual(float64(out[i]), w, 1e-6) {
			t.Errorf("sample %d = %v, want %v", i, out[i], w)
		}
	}
}

func TestPCMSourceScaling(t *testing.T) {
	tests := []struct {
		bitDepth int
		raw      int
		want     float64
	}{
		{16, 16384, 0.5},
		{24, -4194304, -0.5},
		{32, 1073741824, 0.5},
	}

	for _, tt := range tests {
		src, err := newPCMSource(&mockPCM{channels: 1, samples: []int{tt.raw}}, tt.bitDepth)
		if err != nil {
			t.Fatalf("%d bit: %v", tt.bitDepth, err)
		}
		dst := make([]float32, 4)
		n, err := src.ReadSamples(dst)
		if err != nil || n != 1 {
			t.Fatalf("%d bit: n=%d err=%v", tt.bitDepth, n, err)
		}
		if !almostEqual(float64(dst[0]), tt.want, 1e-6) {
			t.Errorf("%d bit: got %v, want %v", tt.bitDepth, dst[0], tt.want)
		}
		if _, err := src.ReadSamples(dst); !errors.Is(err, io.EOF) {
			t.Errorf("%d bit: expected io.EOF after data, got %v", tt.bitDepth, err)
		}
	}

	if _, err := newPCMSource(&mockPCM{channels: 1}, 8); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Fatalf("expected ErrUnsupportedBitDepth, got %v", err)
	}
}

func TestPCMSourcePropagatesErrors(t *testing.T) {
	src, err := newPCMSource(&mockPCM{channels: 1, fail: true}, 16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.ReadSamples(make([]float32, 8)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestMonoMixer(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		in       []float32
		want     []float32
	}{
		{"stereo", 2, []float32{1, 0, 0.5, 0.5, -1, 1}, []float32{0.5, 0.5, 0}},
		{"quad", 4, []float32{1, 1, 1, 1, 0, 0, 0, 0.4}, []float32{1, 0.1}},
		{"mono passthrough", 1, []float32{0.1, 0.2}, []float32{0.1, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sliceSource{samples: tt.in, channels: tt.channels}
			m := NewMonoMixer(src)
			if m.Channels() != 1 {
				t.Fatalf("channels = %d", m.Channels())
			}

			out, err := ReadAll(m)
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(out), len(tt.want))
			}
			for i := range out {
				if !almostEqual(float64(out[i]), float64(tt.want[i]), 1e-6) {
					t.Errorf("sample %d = %v, want %v", i, out[i], tt.want[i])
				}
			}

			if err := m.Close(); err != nil || !src.closed {
				t.Fatalf("Close did not reach source: %v", err)
			}
		})
	}
}

func TestFrameReader(t *testing.T) {
	samples := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	src := &sliceSource{samples: samples, channels: 1, step: 3}

	fr, err := NewFrameReader(src, 4)
	if err != nil {
		t.Fatal(err)
	}

	frame := make([]float32, 4)
	wantFrames := [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 0, 0}}
	wantValid := []int{4, 4, 2}

	for k, want := range wantFrames {
		for i := range frame {
			frame[i] = -1
		}
		n, err := fr.Next(frame)
		if err != nil {
			t.Fatalf("frame %d: %v", k, err)
		}
		if n != wantValid[k] {
			t.Fatalf("frame %d: valid = %d, want %d", k, n, wantValid[k])
		}
		for i := range want {
			if frame[i] != want[i] {
				t.Fatalf("frame %d = %v, want %v", k, frame, want)
			}
		}
	}

	if _, err := fr.Next(frame); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestFrameReaderValidation(t *testing.T) {
	if _, err := NewFrameReader(&sliceSource{channels: 1}, 0); !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("expected ErrInvalidFrameSize, got %v", err)
	}

	fr, err := NewFrameReader(&sliceSource{channels: 1, samples: []float32{1}}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fr.Next(make([]float32, 3)); !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("expected ErrInvalidFrameSize, got %v", err)
	}
}

// seekBuffer is an in-memory io.WriteSeeker for the wav encoder.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Bytes() []byte { return b.data }
