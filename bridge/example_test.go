package bridge_test

import (
	"fmt"

	"github.com/cwbudde/algo-firstream/bridge"
)

func ExampleFilter() {
	f, err := bridge.NewFilter(4, []float64{0.5, 0.5})
	if err != nil {
		panic(err)
	}

	for _, frame := range [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}, {1, 2}} {
		code := f.ProcessFrame(frame)
		out := f.AcquireOutput()
		fmt.Println(code, out.Samples())
		f.ReleaseOutput(out)
	}
	// Output:
	// 0 [0.5 1.5 2.5 3.5]
	// 0 [4.5 5.5 6.5 7.5]
	// -2 [4.5 5.5 6.5 7.5]
}
