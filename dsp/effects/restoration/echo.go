package restoration

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/delay"
	"github.com/cwbudde/algo-restore/dsp/filter/adaptive"
)

const (
	defaultEchoFilterLength = 1024
	defaultEchoStepSize     = 0.01
	defaultEchoDelayMs      = 50.0

	maxEchoFilterLength = 1 << 16
)

// EchoConfig configures an EchoCanceller.
type EchoConfig struct {
	// FilterLength is the number of NLMS taps.
	FilterLength int
	// StepSize is the NLMS step size mu in (0, 2).
	StepSize float64
	// DelayMs is the far-end reference delay in milliseconds.
	DelayMs float64
}

// DefaultEchoConfig returns 1024 taps, mu 0.01 and a 50 ms reference delay.
func DefaultEchoConfig() EchoConfig {
	return EchoConfig{
		FilterLength: defaultEchoFilterLength,
		StepSize:     defaultEchoStepSize,
		DelayMs:      defaultEchoDelayMs,
	}
}

// Validate checks every field.
func (c EchoConfig) Validate() error {
	if c.FilterLength < 1 || c.FilterLength > maxEchoFilterLength {
		return fmt.Errorf("echo filter length must be in [1, %d]: %d: %w",
			maxEchoFilterLength, c.FilterLength, core.ErrInvalidParameter)
	}

	if !(c.StepSize > 0 && c.StepSize < 2) {
		return fmt.Errorf("echo step size must be in (0, 2): %g: %w", c.StepSize, core.ErrInvalidParameter)
	}

	if c.DelayMs < 0 || !core.IsFinite(c.DelayMs) {
		return fmt.Errorf("echo delay must be finite and >= 0 ms: %g: %w", c.DelayMs, core.ErrInvalidParameter)
	}

	return nil
}

// EchoCanceller removes echo with an NLMS filter driven by the input
// delayed by DelayMs. The reference is the signal itself, not a separate
// loudspeaker feed, so the canceller suppresses content that is predictable
// from the signal's own past at that lag.
type EchoCanceller struct {
	cfg        EchoConfig
	sampleRate int
	lastERLE   float64
}

// NewEchoCanceller validates cfg and the sample rate.
func NewEchoCanceller(sampleRate int, cfg EchoConfig) (*EchoCanceller, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("echo sample rate must be > 0: %d: %w", sampleRate, core.ErrInvalidParameter)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &EchoCanceller{cfg: cfg, sampleRate: sampleRate, lastERLE: math.NaN()}, nil
}

// Config returns the active configuration.
func (ec *EchoCanceller) Config() EchoConfig { return ec.cfg }

// DelaySamples returns floor(sampleRate*DelayMs/1000), saturating at
// math.MaxInt32.
func (ec *EchoCanceller) DelaySamples() int {
	d := math.Floor(float64(ec.sampleRate) * ec.cfg.DelayMs / 1000)
	if d >= math.MaxInt32 {
		return math.MaxInt32
	}

	return int(d)
}

// LastERLE returns the echo return loss enhancement of the most recent
// Process call in dB, or NaN before the first call or when the output is
// silent.
func (ec *EchoCanceller) LastERLE() float64 { return ec.lastERLE }

// FarEndReference returns samples delayed by delaySamples with zeros shifted
// in at the start. A delay of len(samples) or more yields all zeros.
func FarEndReference(samples []float64, delaySamples int) ([]float64, error) {
	line, err := delay.New(delaySamples)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(samples))
	if delaySamples >= len(samples) {
		return out, nil
	}

	line.ProcessInto(out, samples)

	return out, nil
}

// Process returns samples with the predicted echo subtracted. Each call
// starts from zero weights.
func (ec *EchoCanceller) Process(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, core.ErrEmptyBuffer
	}

	if err := core.CheckFinite(samples); err != nil {
		return nil, fmt.Errorf("echo input: %w", err)
	}

	filter, err := adaptive.NewNLMS(ec.cfg.FilterLength, ec.cfg.StepSize)
	if err != nil {
		return nil, err
	}

	taps, err := adaptive.NewTapLine(ec.cfg.FilterLength)
	if err != nil {
		return nil, err
	}

	// A delay of the buffer length or more leaves the reference all zero.
	line, err := delay.New(min(ec.DelaySamples(), len(samples)))
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(samples))

	var inEnergy, outEnergy float64

	for n, d := range samples {
		taps.Push(line.Tick(d))
		_, e := filter.Step(taps, d)
		out[n] = e

		inEnergy += d * d
		outEnergy += e * e
	}

	if err := core.CheckFinite(out); err != nil {
		return nil, fmt.Errorf("echo output: %w", err)
	}

	ec.lastERLE = math.NaN()
	if outEnergy > 0 {
		ec.lastERLE = 10 * math.Log10(inEnergy/outEnergy)
	}

	core.ClipInPlace(out)

	return out, nil
}
