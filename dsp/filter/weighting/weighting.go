package weighting

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/filter/biquad"
	"github.com/cwbudde/algo-restore/dsp/filter/design"
)

// K-weighting stage parameters.
const (
	kShelfFreq = 1500.0
	kShelfGain = 4.0
	kShelfQ    = 1 / math.Sqrt2

	kHighpassFreq = 38.0
	kHighpassQ    = 0.5
)

// Type identifies a frequency weighting curve.
type Type int

const (
	// TypeK is the BS.1770 K-weighting curve.
	TypeK Type = iota

	// TypeZ applies no frequency weighting.
	TypeZ
)

// String returns a human-readable name for the weighting type.
func (t Type) String() string {
	switch t {
	case TypeK:
		return "K"
	case TypeZ:
		return "Z"
	default:
		return "Unknown"
	}
}

// New returns a [biquad.Chain] configured for the given weighting curve at
// the specified sample rate. K-weighting needs a rate above twice the shelf
// frequency so both stages can be designed.
func New(t Type, sampleRate float64) (*biquad.Chain, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("weighting sample rate must be > 0: %f: %w", sampleRate, core.ErrInvalidParameter)
	}

	switch t {
	case TypeK:
		return newKWeighting(sampleRate)
	case TypeZ:
		return biquad.NewChain([]biquad.Coefficients{{B0: 1}}), nil
	default:
		return nil, fmt.Errorf("weighting: unknown type %d: %w", t, core.ErrInvalidParameter)
	}
}

func newKWeighting(sr float64) (*biquad.Chain, error) {
	shelf := design.HighShelf(kShelfFreq, kShelfGain, kShelfQ, sr)
	hp := design.Highpass(kHighpassFreq, kHighpassQ, sr)

	if shelf == (biquad.Coefficients{}) || hp == (biquad.Coefficients{}) {
		return nil, fmt.Errorf("weighting: K-weighting undefined at %.0f Hz: %w", sr, core.ErrInvalidParameter)
	}

	return biquad.NewChain([]biquad.Coefficients{shelf, hp}), nil
}
