package restoration

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/spectrum"
)

const (
	defaultWPEFFTSize    = 512
	defaultWPEHopSize    = 128
	defaultWPEIterations = 3
	defaultWPETaps       = 10
	defaultWPEDelay      = 3
	defaultWPEEpsilon    = 1e-10

	maxWPEIterations = 10
	maxWPETaps       = 64
)

// WPEConfig configures a Dereverberator.
type WPEConfig struct {
	// FFTSize is the STFT frame length, a power of two >= 16.
	FFTSize int
	// HopSize is the STFT frame advance in [1, FFTSize].
	HopSize int
	// Iterations is the number of weight re-estimation passes in [0, 10].
	// Zero performs only the STFT round trip.
	Iterations int
	// Taps is the prediction filter order in frames.
	Taps int
	// Delay is the prediction delay in frames. Reflections arriving earlier
	// than Delay frames are kept.
	Delay int
	// Epsilon floors the per-frame power used as the prediction weight.
	Epsilon float64
}

// DefaultWPEConfig returns a 512/128 STFT, 3 iterations, 10 taps and a
// delay of 3 frames.
func DefaultWPEConfig() WPEConfig {
	return WPEConfig{
		FFTSize:    defaultWPEFFTSize,
		HopSize:    defaultWPEHopSize,
		Iterations: defaultWPEIterations,
		Taps:       defaultWPETaps,
		Delay:      defaultWPEDelay,
		Epsilon:    defaultWPEEpsilon,
	}
}

// Validate checks every field.
func (c WPEConfig) Validate() error {
	if err := spectrum.ValidateGeometry(c.FFTSize, c.HopSize); err != nil {
		return fmt.Errorf("wpe: %w", err)
	}

	if c.Iterations < 0 || c.Iterations > maxWPEIterations {
		return fmt.Errorf("wpe iterations must be in [0, %d]: %d: %w", maxWPEIterations, c.Iterations, core.ErrInvalidParameter)
	}

	if c.Taps < 1 || c.Taps > maxWPETaps {
		return fmt.Errorf("wpe taps must be in [1, %d]: %d: %w", maxWPETaps, c.Taps, core.ErrInvalidParameter)
	}

	if c.Delay < 1 {
		return fmt.Errorf("wpe delay must be >= 1: %d: %w", c.Delay, core.ErrInvalidParameter)
	}

	if !(c.Epsilon > 0) || !core.IsFinite(c.Epsilon) {
		return fmt.Errorf("wpe epsilon must be > 0: %g: %w", c.Epsilon, core.ErrInvalidParameter)
	}

	return nil
}

// Dereverberator removes late reverberation with single-channel weighted
// prediction error (WPE) filtering in the STFT domain. Every frequency bin
// gets its own delayed linear predictor, re-estimated Iterations times with
// weights taken from the previous pass's power estimate.
type Dereverberator struct {
	cfg        WPEConfig
	sampleRate int
	stft       *spectrum.STFT
	eq         *normalEquations
	history    []complex128
	invPower   []float64
}

// NewDereverberator validates cfg and builds the STFT.
func NewDereverberator(sampleRate int, cfg WPEConfig) (*Dereverberator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wpe sample rate must be > 0: %d: %w", sampleRate, core.ErrInvalidParameter)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stft, err := spectrum.NewSTFT(cfg.FFTSize, cfg.HopSize)
	if err != nil {
		return nil, fmt.Errorf("wpe: %w", err)
	}

	return &Dereverberator{
		cfg:        cfg,
		sampleRate: sampleRate,
		stft:       stft,
		eq:         newNormalEquations(cfg.Taps),
		history:    make([]complex128, cfg.Taps),
	}, nil
}

// Config returns the active configuration.
func (d *Dereverberator) Config() WPEConfig { return d.cfg }

// Process returns the dereverberated signal with the same length as samples.
// A non-finite result is reported as core.ErrNumericInstability.
func (d *Dereverberator) Process(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, core.ErrEmptyBuffer
	}

	if err := core.CheckFinite(samples); err != nil {
		return nil, fmt.Errorf("wpe input: %w", err)
	}

	spec, err := d.stft.Forward(samples)
	if err != nil {
		return nil, fmt.Errorf("wpe: %w", err)
	}

	if d.cfg.Iterations > 0 {
		for k, bin := range spec.Bins {
			spec.Bins[k] = d.processBin(bin)
		}
	}

	out, err := d.stft.Inverse(spec, len(samples))
	if err != nil {
		return nil, fmt.Errorf("wpe: %w", err)
	}

	if err := core.CheckFinite(out); err != nil {
		return nil, fmt.Errorf("wpe output: %w", err)
	}

	core.ClipInPlace(out)

	return out, nil
}

// processBin runs the WPE iterations on one bin trajectory x and returns
// the dereverberated trajectory.
func (d *Dereverberator) processBin(x []complex128) []complex128 {
	frames := len(x)
	out := make([]complex128, frames)
	copy(out, x)

	if frames <= d.cfg.Delay {
		return out
	}

	if cap(d.invPower) < frames {
		d.invPower = make([]float64, frames)
	}

	d.invPower = d.invPower[:frames]

	for range d.cfg.Iterations {
		spectrum.PowerInto(d.invPower, out)
		for t, p := range d.invPower {
			d.invPower[t] = 1 / max(p, d.cfg.Epsilon)
		}

		d.eq.reset()

		for t := d.cfg.Delay; t < frames; t++ {
			d.eq.accumulate(d.stack(x, t), x[t], d.invPower[t])
		}

		g, ok := d.eq.solve()
		if !ok {
			return out
		}

		for t := range frames {
			var pred complex128
			for k, v := range d.stack(x, t) {
				pred += complex(real(g[k]), -imag(g[k])) * v
			}

			out[t] = x[t] - pred
		}
	}

	return out
}

// stack fills the delayed history [x[t-Delay], x[t-Delay-1], ...] with
// zeros before the first frame.
func (d *Dereverberator) stack(x []complex128, t int) []complex128 {
	for k := range d.history {
		idx := t - d.cfg.Delay - k
		if idx >= 0 {
			d.history[k] = x[idx]
		} else {
			d.history[k] = 0
		}
	}

	return d.history
}
