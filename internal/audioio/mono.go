package audioio

import "github.com/cwbudde/algo-firstream/dsp/core"

// MonoMixer downmixes an interleaved multichannel Source to mono by
// averaging the channels of each sample frame.
type MonoMixer struct {
	src Source
	tmp []float32
}

// NewMonoMixer wraps src.
func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{src: src}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) Close() error    { return m.src.Close() }

// ReadSamples fills dst with up to len(dst) mono samples.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	channels := m.src.Channels()
	if channels <= 1 {
		return m.src.ReadSamples(dst)
	}

	m.tmp = core.EnsureLen(m.tmp, len(dst)*channels)

	n, err := m.src.ReadSamples(m.tmp)
	frames := n / channels
	inv := 1 / float32(channels)

	for f := range frames {
		var sum float32
		for _, v := range m.tmp[f*channels : (f+1)*channels] {
			sum += v
		}
		dst[f] = sum * inv
	}

	return frames, err
}
