package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/measure/loudness"
)

const (
	defaultTargetLUFS = -16.0
	minTargetLUFS     = -70.0
	maxTargetLUFS     = 0.0
)

// NormalizeResult is the outcome of one loudness normalization.
type NormalizeResult struct {
	Samples []float64
	// InputLUFS is the measured integrated loudness, -Inf when undefined.
	InputLUFS float64
	// GainDB is the applied gain, 0 when skipped.
	GainDB float64
	// Skipped reports that loudness was undefined and no gain was applied.
	Skipped bool
}

// Normalizer scales a buffer so its BS.1770 integrated loudness reaches a
// target. Silent or too-short input, whose loudness is undefined, is passed
// through clipped and reported as skipped instead of failing.
type Normalizer struct {
	targetLUFS float64
}

// NewNormalizer creates a normalizer for targetLUFS in [-70, 0].
func NewNormalizer(targetLUFS float64) (*Normalizer, error) {
	if targetLUFS < minTargetLUFS || targetLUFS > maxTargetLUFS || math.IsNaN(targetLUFS) {
		return nil, fmt.Errorf("normalizer target must be in [%g, %g] LUFS: %f: %w",
			minTargetLUFS, maxTargetLUFS, targetLUFS, core.ErrInvalidParameter)
	}

	return &Normalizer{targetLUFS: targetLUFS}, nil
}

// DefaultTargetLUFS returns the -16 LUFS default target.
func DefaultTargetLUFS() float64 { return defaultTargetLUFS }

// Target returns the target loudness in LUFS.
func (n *Normalizer) Target() float64 { return n.targetLUFS }

// Normalize measures samples and applies the gain that moves them to the
// target loudness. The output is a new buffer clipped to [-1, 1].
func (n *Normalizer) Normalize(samples []float64, sampleRate int) (NormalizeResult, error) {
	lufs, err := loudness.Integrated(samples, sampleRate)
	if err != nil {
		return NormalizeResult{}, fmt.Errorf("normalizer: %w", err)
	}

	if !core.IsFinite(lufs) {
		return NormalizeResult{
			Samples:   core.Clip(samples),
			InputLUFS: lufs,
			Skipped:   true,
		}, nil
	}

	gainDB := n.targetLUFS - lufs
	gain := core.DBToLinear(gainDB)

	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = v * gain
	}

	if err := core.CheckFinite(out); err != nil {
		return NormalizeResult{}, fmt.Errorf("normalizer: %w", err)
	}

	core.ClipInPlace(out)

	return NormalizeResult{Samples: out, InputLUFS: lufs, GainDB: gainDB}, nil
}
