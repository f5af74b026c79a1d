package restoration

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/internal/testutil"
)

func TestWPEConfigValidate(t *testing.T) {
	if err := DefaultWPEConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	mutate := []func(*WPEConfig){
		func(c *WPEConfig) { c.Iterations = -1 },
		func(c *WPEConfig) { c.Iterations = 11 },
		func(c *WPEConfig) { c.Taps = 0 },
		func(c *WPEConfig) { c.Delay = 0 },
		func(c *WPEConfig) { c.Epsilon = 0 },
		func(c *WPEConfig) { c.FFTSize = 500 },
		func(c *WPEConfig) { c.HopSize = 0 },
	}

	for i, m := range mutate {
		cfg := DefaultWPEConfig()
		m(&cfg)

		if _, err := NewDereverberator(16000, cfg); !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("case %d: got %v want ErrInvalidParameter", i, err)
		}
	}

	if _, err := NewDereverberator(0, DefaultWPEConfig()); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("zero rate: got %v", err)
	}
}

func TestWPEZeroIterationsIsRoundTrip(t *testing.T) {
	cfg := DefaultWPEConfig()
	cfg.Iterations = 0

	d, err := NewDereverberator(16000, cfg)
	if err != nil {
		t.Fatal(err)
	}

	in := testutil.DeterministicNoise(2, 0.8, 3001)

	out, err := d.Process(in)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, out, in, 1e-9)
}

func TestWPEPreservesLength(t *testing.T) {
	d, err := NewDereverberator(16000, DefaultWPEConfig())
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{1, 100, 511, 4097} {
		out, err := d.Process(testutil.DeterministicNoise(int64(n), 0.5, n))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		if len(out) != n {
			t.Fatalf("n=%d: got length %d", n, len(out))
		}

		testutil.RequireFinite(t, out)
		testutil.RequireInRange(t, out, -1, 1)
	}
}

func TestWPEEmptyAndNonFinite(t *testing.T) {
	d, err := NewDereverberator(16000, DefaultWPEConfig())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.Process(nil); !errors.Is(err, core.ErrEmptyBuffer) {
		t.Fatalf("empty: got %v", err)
	}

	if _, err := d.Process([]float64{0, math.Inf(1)}); !errors.Is(err, core.ErrNumericInstability) {
		t.Fatalf("inf: got %v", err)
	}
}

func TestWPESilenceStaysSilent(t *testing.T) {
	d, err := NewDereverberator(16000, DefaultWPEConfig())
	if err != nil {
		t.Fatal(err)
	}

	out, err := d.Process(make([]float64, 2048))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, out, make([]float64, 2048), 0)
}

func TestWPEReducesReverberantTail(t *testing.T) {
	const (
		length = 16000
		on     = 1600
		off    = 1600
		skip   = 600
	)

	dry := testutil.DeterministicNoise(21, 0.5, length)
	for i := range dry {
		if i%(on+off) >= on {
			dry[i] = 0
		}
	}

	wet := testutil.Convolve(dry, testutil.ExponentialTail(4, 6000, 6000))

	peak := core.Peak(wet)
	for i := range wet {
		wet[i] *= 0.9 / peak
	}

	d, err := NewDereverberator(16000, DefaultWPEConfig())
	if err != nil {
		t.Fatal(err)
	}

	out, err := d.Process(wet)
	if err != nil {
		t.Fatal(err)
	}

	tailEnergy := func(x []float64) float64 {
		var e float64
		for i, v := range x {
			if i%(on+off) >= on+skip {
				e += v * v
			}
		}
		return e
	}

	reduction := 10 * math.Log10(tailEnergy(wet)/tailEnergy(out))
	if reduction < 1 {
		t.Fatalf("tail reduction: got %.2f dB want >= 1 dB", reduction)
	}
}

func TestNormalEquationsSolve(t *testing.T) {
	ne := newNormalEquations(2)

	// R = [[2, 1-i], [1+i, 3]], g = [1+i, -2i] gives p = R g.
	want := []complex128{1 + 1i, -2i}
	r := [][]complex128{{2, 1 - 1i}, {1 + 1i, 3}}

	for i := range 2 {
		for j := i; j < 2; j++ {
			ne.r[i*2+j] = r[i][j]
		}

		ne.p[i] = r[i][0]*want[0] + r[i][1]*want[1]
	}

	g, ok := ne.solve()
	if !ok {
		t.Fatal("solve failed")
	}

	for i := range want {
		if cmplx.Abs(g[i]-want[i]) > 1e-8 {
			t.Fatalf("g[%d]: got %v want %v", i, g[i], want[i])
		}
	}
}

func TestNormalEquationsZeroTrace(t *testing.T) {
	ne := newNormalEquations(3)
	if _, ok := ne.solve(); ok {
		t.Fatal("expected failure on zero matrix")
	}
}

func TestNormalEquationsAccumulateIsHermitianOuterProduct(t *testing.T) {
	ne := newNormalEquations(2)
	ne.accumulate([]complex128{1i, 2}, 1+1i, 0.5)

	// Upper triangle of 0.5 * x x^H, and 0.5 * x * conj(1+i).
	wantR := []complex128{0.5, 1i, 0, 2}
	wantP := []complex128{0.5 * 1i * (1 - 1i), 0.5 * 2 * (1 - 1i)}

	for i, w := range wantR {
		if i == 2 {
			continue
		}

		if cmplx.Abs(ne.r[i]-w) > 1e-12 {
			t.Fatalf("r[%d]: got %v want %v", i, ne.r[i], w)
		}
	}

	for i, w := range wantP {
		if cmplx.Abs(ne.p[i]-w) > 1e-12 {
			t.Fatalf("p[%d]: got %v want %v", i, ne.p[i], w)
		}
	}
}
