package buffer

import "testing"

func TestPoolGetPut(t *testing.T) {
	p := NewPool()

	b := p.Get(128)
	if b.Len() != 128 {
		t.Fatalf("Len = %d, want 128", b.Len())
	}
	b.Samples()[0] = 42
	if p.Outstanding() != 1 {
		t.Fatalf("Outstanding = %d, want 1", p.Outstanding())
	}
	p.Put(b)
	p.Put(nil)
	if p.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d, want 0", p.Outstanding())
	}

	// Whatever buffer comes back must be zeroed.
	b2 := p.Get(64)
	for i, v := range b2.Samples() {
		if v != 0 {
			t.Fatalf("sample[%d] = %v, want 0", i, v)
		}
	}
	p.Put(b2)
}

func BenchmarkPoolGetPut(b *testing.B) {
	p := NewPool()
	b.ReportAllocs()
	for b.Loop() {
		buf := p.Get(4410)
		p.Put(buf)
	}
}
