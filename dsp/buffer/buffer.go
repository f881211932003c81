package buffer

// Buffer wraps a float32 slice with reuse-friendly semantics.
type Buffer struct {
	samples []float32
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	return &Buffer{samples: make([]float32, max(length, 0))}
}

// FromSlice wraps an existing slice without copying.
func FromSlice(s []float32) *Buffer {
	return &Buffer{samples: s}
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float32 {
	return b.samples
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Cap returns the current capacity of the backing slice.
func (b *Buffer) Cap() int {
	return cap(b.samples)
}

// Resize sets the length to n, reusing existing capacity when possible.
// Elements beyond the previous length are zeroed.
func (b *Buffer) Resize(n int) {
	n = max(n, 0)
	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]float32, n)
		copy(s, b.samples)
		b.samples = s
	}
	if n > oldLen {
		clear(b.samples[oldLen:])
	}
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	clear(b.samples)
}

// CopyFrom resizes b to len(src) and copies src into it.
func (b *Buffer) CopyFrom(src []float32) {
	b.Resize(len(src))
	copy(b.samples, src)
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	s := make([]float32, len(b.samples))
	copy(s, b.samples)
	return &Buffer{samples: s}
}
