package testutil

import "testing"

func TestMaxAbsDiff(t *testing.T) {
	d, err := MaxAbsDiff([]float32{1, 2, 3}, []float32{1, 2.5, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 1 {
		t.Fatalf("MaxAbsDiff = %v, want 1", d)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	if _, err := MaxAbsDiff([]float32{1}, []float32{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestMaxAbsDiffIdentical(t *testing.T) {
	a := DeterministicNoise(7, 1, 32)
	d, err := MaxAbsDiff(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Fatalf("MaxAbsDiff = %v, want 0", d)
	}
}
