package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/internal/testutil"
)

func newTestCompressor(t *testing.T, cfg CompressorConfig) *Compressor {
	t.Helper()

	c, err := NewCompressor(48000, cfg)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	return c
}

func TestNewCompressor(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		mutate     func(*CompressorConfig)
		wantErr    bool
	}{
		{"defaults", 48000, nil, false},
		{"hard knee", 44100, func(c *CompressorConfig) { c.KneeDB = 0 }, false},
		{"instant attack", 44100, func(c *CompressorConfig) { c.AttackSec = 0 }, false},
		{"ratio 1", 44100, func(c *CompressorConfig) { c.Ratio = 1 }, false},
		{"zero rate", 0, nil, true},
		{"nan rate", math.NaN(), nil, true},
		{"ratio below 1", 48000, func(c *CompressorConfig) { c.Ratio = 0.5 }, true},
		{"ratio inf", 48000, func(c *CompressorConfig) { c.Ratio = math.Inf(1) }, true},
		{"negative knee", 48000, func(c *CompressorConfig) { c.KneeDB = -1 }, true},
		{"negative attack", 48000, func(c *CompressorConfig) { c.AttackSec = -0.01 }, true},
		{"huge release", 48000, func(c *CompressorConfig) { c.ReleaseSec = 60 }, true},
		{"nan threshold", 48000, func(c *CompressorConfig) { c.ThresholdDB = math.NaN() }, true},
		{"inf makeup", 48000, func(c *CompressorConfig) { c.MakeupGainDB = math.Inf(1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCompressorConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			c, err := NewCompressor(tt.sampleRate, cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCompressor() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr && !errors.Is(err, core.ErrInvalidParameter) {
				t.Errorf("NewCompressor() error = %v, want ErrInvalidParameter", err)
			}

			if !tt.wantErr && c == nil {
				t.Error("NewCompressor() returned nil without error")
			}
		})
	}
}

func TestCompressorDefaults(t *testing.T) {
	cfg := DefaultCompressorConfig()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"Threshold", cfg.ThresholdDB, -20},
		{"Ratio", cfg.Ratio, 4},
		{"Attack", cfg.AttackSec, 0.01},
		{"Release", cfg.ReleaseSec, 0.1},
		{"Knee", cfg.KneeDB, 5},
		{"Makeup", cfg.MakeupGainDB, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %f, want %f", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestGainCurveKneeContinuity(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())

	const (
		lower = -22.5
		upper = -17.5
		eps   = 1e-9
	)

	full := func(l float64) float64 { return -20 - l + (l+20)/4 }

	if got := c.GainDB(lower); got != 0 {
		t.Errorf("GainDB(%v) = %v, want 0", lower, got)
	}

	if got := c.GainDB(lower + eps); math.Abs(got) > 1e-9 {
		t.Errorf("GainDB just inside lower edge = %v, want ~0", got)
	}

	if got := c.GainDB(upper); math.Abs(got-full(upper)) > 1e-12 {
		t.Errorf("GainDB(%v) = %v, want %v", upper, got, full(upper))
	}

	if math.Abs(full(upper)-(-1.875)) > 1e-12 {
		t.Fatalf("full-ratio gain at upper edge = %v, want -1.875", full(upper))
	}

	below, above := c.GainDB(upper-eps), c.GainDB(upper+eps)
	if math.Abs(below-above) > 1e-8 {
		t.Errorf("discontinuity at upper edge: %v vs %v", below, above)
	}
}

func TestGainCurveShape(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())

	prev := 1.0
	for l := -60.0; l <= 0; l += 0.25 {
		g := c.GainDB(l)
		if g > 0 {
			t.Fatalf("GainDB(%v) = %v, want <= 0", l, g)
		}

		if g > prev+1e-12 {
			t.Fatalf("gain curve not non-increasing at %v dB: %v > %v", l, g, prev)
		}

		prev = g
	}

	// Far above the knee every 4 dB of input adds 1 dB of output.
	if d := (c.GainDB(-4) + -4) - (c.GainDB(-8) + -8); math.Abs(d-1) > 1e-12 {
		t.Errorf("output slope = %v dB per 4 dB, want 1", d)
	}
}

func TestGainCurveHardKnee(t *testing.T) {
	cfg := DefaultCompressorConfig()
	cfg.KneeDB = 0
	c := newTestCompressor(t, cfg)

	if g := c.GainDB(-20); g != 0 {
		t.Errorf("GainDB(threshold) = %v, want 0", g)
	}

	if g := c.GainDB(-12); math.Abs(g-(-6)) > 1e-12 {
		t.Errorf("GainDB(-12) = %v, want -6", g)
	}
}

func TestCompressorQuietSignalUnchanged(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())

	in := testutil.DeterministicSine(440, 48000, 0.01, 4800)

	out, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, out, in, 0)

	if c.Metrics().MaxGainReductionDB != 0 {
		t.Errorf("MaxGainReductionDB = %v, want 0", c.Metrics().MaxGainReductionDB)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())

	in := testutil.DeterministicSine(1000, 48000, 0.5, 48000)

	out, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}

	// Envelope settles near 0.44 (-7 dB), i.e. about 9.6 dB of reduction.
	gain := 20 * math.Log10(testutil.RMS(out[24000:])/testutil.RMS(in[24000:]))
	if gain > -8.5 || gain < -10.5 {
		t.Errorf("steady-state gain = %.2f dB, want about -9.6 dB", gain)
	}

	m := c.Metrics()
	if math.Abs(m.InputPeak-0.5) > 1e-9 {
		t.Errorf("InputPeak = %v, want 0.5", m.InputPeak)
	}

	// The first peak passes before the envelope reaches the knee, so only
	// the settled region is compared against the input peak.
	if peak := core.Peak(out[24000:]); peak > 0.25 {
		t.Errorf("steady-state peak = %v, want <= 0.25", peak)
	}

	if m.MaxGainReductionDB < 8.5 {
		t.Errorf("MaxGainReductionDB = %v, want >= 8.5", m.MaxGainReductionDB)
	}
}

func TestCompressorClipsOutput(t *testing.T) {
	cfg := DefaultCompressorConfig()
	cfg.Ratio = 1
	cfg.MakeupGainDB = 12
	c := newTestCompressor(t, cfg)

	in := testutil.DeterministicSine(100, 48000, 0.9, 4800)

	out, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireInRange(t, out, -1, 1)

	if core.Peak(out) != 1 {
		t.Errorf("peak = %v, want clipped at 1", core.Peak(out))
	}
}

func TestCompressorProcessIsRepeatable(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())
	in := testutil.DeterministicNoise(5, 0.8, 2048)

	a, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	b, err := c.Process(in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, a, b, 0)
}

func TestCompressorErrors(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())

	if _, err := c.Process(nil); !errors.Is(err, core.ErrEmptyBuffer) {
		t.Errorf("Process(nil) error = %v, want ErrEmptyBuffer", err)
	}

	if _, err := c.Process([]float64{0.1, math.NaN()}); !errors.Is(err, core.ErrNumericInstability) {
		t.Errorf("Process(NaN) error = %v, want ErrNumericInstability", err)
	}
}

func TestCompressorSetters(t *testing.T) {
	c := newTestCompressor(t, DefaultCompressorConfig())

	tests := []struct {
		name    string
		set     func() error
		wantErr bool
	}{
		{"threshold", func() error { return c.SetThreshold(-30) }, false},
		{"threshold nan", func() error { return c.SetThreshold(math.NaN()) }, true},
		{"ratio", func() error { return c.SetRatio(8) }, false},
		{"ratio zero", func() error { return c.SetRatio(0) }, true},
		{"knee", func() error { return c.SetKnee(3) }, false},
		{"knee too wide", func() error { return c.SetKnee(48) }, true},
		{"attack", func() error { return c.SetAttack(0.005) }, false},
		{"release", func() error { return c.SetRelease(0.2) }, false},
		{"release negative", func() error { return c.SetRelease(-1) }, true},
		{"makeup", func() error { return c.SetMakeupGain(3) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); (err != nil) != tt.wantErr {
				t.Errorf("setter error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	want := CompressorConfig{ThresholdDB: -30, Ratio: 8, AttackSec: 0.005, ReleaseSec: 0.2, KneeDB: 3, MakeupGainDB: 3}
	if got := c.Config(); got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}
}
