package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
)

const (
	defaultCompressorThresholdDB = -20.0
	defaultCompressorRatio       = 4.0
	defaultCompressorAttackSec   = 0.01
	defaultCompressorReleaseSec  = 0.1
	defaultCompressorKneeDB      = 5.0

	minCompressorRatio      = 1.0
	maxCompressorRatio      = 100.0
	maxCompressorKneeDB     = 24.0
	maxCompressorAttackSec  = 1.0
	maxCompressorReleaseSec = 5.0

	// levelEpsilon keeps 20*log10(env) finite for a silent envelope.
	levelEpsilon = 1e-8
)

// CompressorConfig holds the static compressor parameters.
type CompressorConfig struct {
	ThresholdDB  float64
	Ratio        float64
	AttackSec    float64
	ReleaseSec   float64
	KneeDB       float64
	MakeupGainDB float64
}

// DefaultCompressorConfig returns -20 dB threshold, 4:1, 10 ms attack,
// 100 ms release, 5 dB knee and no makeup gain.
func DefaultCompressorConfig() CompressorConfig {
	return CompressorConfig{
		ThresholdDB: defaultCompressorThresholdDB,
		Ratio:       defaultCompressorRatio,
		AttackSec:   defaultCompressorAttackSec,
		ReleaseSec:  defaultCompressorReleaseSec,
		KneeDB:      defaultCompressorKneeDB,
	}
}

// Validate checks every parameter range.
func (c CompressorConfig) Validate() error {
	if !core.IsFinite(c.ThresholdDB) {
		return fmt.Errorf("compressor threshold must be finite: %f: %w", c.ThresholdDB, core.ErrInvalidParameter)
	}

	if c.Ratio < minCompressorRatio || c.Ratio > maxCompressorRatio || math.IsNaN(c.Ratio) {
		return fmt.Errorf("compressor ratio must be in [%g, %g]: %f: %w",
			minCompressorRatio, maxCompressorRatio, c.Ratio, core.ErrInvalidParameter)
	}

	if c.KneeDB < 0 || c.KneeDB > maxCompressorKneeDB || math.IsNaN(c.KneeDB) {
		return fmt.Errorf("compressor knee must be in [0, %g]: %f: %w",
			maxCompressorKneeDB, c.KneeDB, core.ErrInvalidParameter)
	}

	if c.AttackSec < 0 || c.AttackSec > maxCompressorAttackSec || math.IsNaN(c.AttackSec) {
		return fmt.Errorf("compressor attack must be in [0, %g] s: %f: %w",
			maxCompressorAttackSec, c.AttackSec, core.ErrInvalidParameter)
	}

	if c.ReleaseSec < 0 || c.ReleaseSec > maxCompressorReleaseSec || math.IsNaN(c.ReleaseSec) {
		return fmt.Errorf("compressor release must be in [0, %g] s: %f: %w",
			maxCompressorReleaseSec, c.ReleaseSec, core.ErrInvalidParameter)
	}

	if !core.IsFinite(c.MakeupGainDB) {
		return fmt.Errorf("compressor makeup gain must be finite: %f: %w", c.MakeupGainDB, core.ErrInvalidParameter)
	}

	return nil
}

// CompressorMetrics holds metering gathered by the last Process call.
type CompressorMetrics struct {
	InputPeak          float64 // largest absolute input sample
	OutputPeak         float64 // largest absolute output sample before clipping
	MaxGainReductionDB float64 // deepest attenuation applied, as a positive dB value
}

// Compressor is a feed-forward peak compressor with a quadratic soft knee.
//
// The gain computer works in dB on the envelope of the rectified input:
// no gain below threshold-knee/2, full ratio above threshold+knee/2 and a
// quadratic blend in between that meets both segments without a step.
//
// A Compressor carries envelope state and is not safe for concurrent use.
type Compressor struct {
	cfg        CompressorConfig
	sampleRate float64

	env       *EnvelopeFollower
	makeupLin float64

	metrics CompressorMetrics
}

// NewCompressor creates a compressor for the given rate and parameters.
func NewCompressor(sampleRate float64, cfg CompressorConfig) (*Compressor, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("compressor sample rate must be positive and finite: %f: %w",
			sampleRate, core.ErrInvalidParameter)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Compressor{cfg: cfg, sampleRate: sampleRate}
	if err := c.rebuild(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Compressor) rebuild() error {
	env, err := NewEnvelopeFollower(c.sampleRate, c.cfg.AttackSec, c.cfg.ReleaseSec)
	if err != nil {
		return err
	}

	if c.env != nil {
		env.SetValue(c.env.Value())
	}

	c.env = env
	c.makeupLin = core.DBToLinear(c.cfg.MakeupGainDB)

	return nil
}

func (c *Compressor) apply(next CompressorConfig) error {
	if err := next.Validate(); err != nil {
		return err
	}

	c.cfg = next

	return c.rebuild()
}

// SetThreshold sets the compression threshold in dB.
func (c *Compressor) SetThreshold(dB float64) error {
	next := c.cfg
	next.ThresholdDB = dB

	return c.apply(next)
}

// SetRatio sets the compression ratio. 1 disables compression.
func (c *Compressor) SetRatio(ratio float64) error {
	next := c.cfg
	next.Ratio = ratio

	return c.apply(next)
}

// SetKnee sets the soft-knee width in dB. 0 selects a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	next := c.cfg
	next.KneeDB = kneeDB

	return c.apply(next)
}

// SetAttack sets the attack time in seconds.
func (c *Compressor) SetAttack(seconds float64) error {
	next := c.cfg
	next.AttackSec = seconds

	return c.apply(next)
}

// SetRelease sets the release time in seconds.
func (c *Compressor) SetRelease(seconds float64) error {
	next := c.cfg
	next.ReleaseSec = seconds

	return c.apply(next)
}

// SetMakeupGain sets a static output gain in dB.
func (c *Compressor) SetMakeupGain(dB float64) error {
	next := c.cfg
	next.MakeupGainDB = dB

	return c.apply(next)
}

// Config returns the current parameters.
func (c *Compressor) Config() CompressorConfig { return c.cfg }

// SampleRate returns the sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// GainDB evaluates the static gain curve for an envelope level in dB.
// The result is <= 0; makeup gain is not included.
func (c *Compressor) GainDB(levelDB float64) float64 {
	t, r, k := c.cfg.ThresholdDB, c.cfg.Ratio, c.cfg.KneeDB

	if k <= 0 {
		if levelDB <= t {
			return 0
		}

		return t - levelDB + (levelDB-t)/r
	}

	lower := t - k/2
	upper := t + k/2

	switch {
	case levelDB <= lower:
		return 0
	case levelDB > upper:
		return t - levelDB + (levelDB-t)/r
	default:
		delta := levelDB - lower
		return (1/r - 1) * delta * delta / (2 * k)
	}
}

// ProcessSample advances the envelope with x and returns the compressed
// sample. The output is not clipped.
func (c *Compressor) ProcessSample(x float64) float64 {
	env := c.env.Process(x)
	gainDB := c.GainDB(levelToDB(env + levelEpsilon))
	y := x * dbToGain(gainDB) * c.makeupLin

	c.updateMetrics(math.Abs(x), math.Abs(y), gainDB)

	return y
}

// Process compresses samples into a new buffer clipped to [-1, 1].
// The envelope starts from zero on every call.
func (c *Compressor) Process(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, core.ErrEmptyBuffer
	}

	c.Reset()

	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = c.ProcessSample(x)
	}

	if err := core.CheckFinite(out); err != nil {
		return nil, fmt.Errorf("compressor: %w", err)
	}

	core.ClipInPlace(out)

	return out, nil
}

// Reset clears the envelope and metrics.
func (c *Compressor) Reset() {
	c.env.Reset()
	c.metrics = CompressorMetrics{}
}

// Metrics returns metering gathered since the last Reset.
func (c *Compressor) Metrics() CompressorMetrics {
	return c.metrics
}

func (c *Compressor) updateMetrics(inputLevel, outputLevel, gainDB float64) {
	c.metrics.InputPeak = math.Max(c.metrics.InputPeak, inputLevel)
	c.metrics.OutputPeak = math.Max(c.metrics.OutputPeak, outputLevel)
	c.metrics.MaxGainReductionDB = math.Max(c.metrics.MaxGainReductionDB, -gainDB)
}
