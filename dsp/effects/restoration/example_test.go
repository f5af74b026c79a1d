package restoration_test

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp/effects/restoration"
)

func ExampleFarEndReference() {
	ref, err := restoration.FarEndReference([]float64{0.1, 0.2, 0.3, 0.4, 0.5}, 2)
	if err != nil {
		panic(err)
	}

	fmt.Println(ref)
	// Output:
	// [0 0 0.1 0.2 0.3]
}

func ExampleDefaultWPEConfig() {
	cfg := restoration.DefaultWPEConfig()
	fmt.Printf("fft=%d hop=%d iterations=%d taps=%d delay=%d\n",
		cfg.FFTSize, cfg.HopSize, cfg.Iterations, cfg.Taps, cfg.Delay)
	// Output:
	// fft=512 hop=128 iterations=3 taps=10 delay=3
}
