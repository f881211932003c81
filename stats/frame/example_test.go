package frame_test

import (
	"fmt"

	"github.com/cwbudde/algo-firstream/stats/frame"
)

func ExampleCalculate() {
	s := frame.Calculate([]float32{1, -1, 1, -1})
	fmt.Printf("rms=%.1f zc=%d\n", s.RMS, s.ZeroCrossings)

	// Output:
	// rms=1.0 zc=3
}

func ExampleAccumulator() {
	var a frame.Accumulator
	a.Update([]float32{0.5, -0.5})
	a.Update([]float32{0.5, -0.5})
	s := a.Result()
	fmt.Printf("len=%d peak=%.1f dB zc=%d\n", s.Length, s.PeakDB(), s.ZeroCrossings)

	// Output:
	// len=4 peak=-6.0 dB zc=3
}
