package adaptive

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp/core"
	"gonum.org/v1/gonum/floats"
)

// DefaultEpsilon regularizes the NLMS normalization against silent input.
const DefaultEpsilon = 1e-6

// Option configures an NLMS filter.
type Option func(*config)

type config struct {
	epsilon float64
}

// WithEpsilon sets the regularization added to the input energy.
func WithEpsilon(eps float64) Option {
	return func(c *config) { c.epsilon = eps }
}

// NLMS is a normalized least mean squares FIR filter. Weights start at zero.
// It is not safe for concurrent use.
type NLMS struct {
	weights []float64
	mu      float64
	eps     float64
}

// NewNLMS creates a filter with length taps and step size mu in (0, 2).
func NewNLMS(length int, mu float64, opts ...Option) (*NLMS, error) {
	if length <= 0 {
		return nil, fmt.Errorf("nlms length must be > 0: %d: %w", length, core.ErrInvalidParameter)
	}

	if !(mu > 0 && mu < 2) {
		return nil, fmt.Errorf("nlms step size must be in (0, 2): %g: %w", mu, core.ErrInvalidParameter)
	}

	cfg := config{epsilon: DefaultEpsilon}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !(cfg.epsilon > 0) || !core.IsFinite(cfg.epsilon) {
		return nil, fmt.Errorf("nlms epsilon must be > 0: %g: %w", cfg.epsilon, core.ErrInvalidParameter)
	}

	return &NLMS{weights: make([]float64, length), mu: mu, eps: cfg.epsilon}, nil
}

// Length returns the number of taps.
func (f *NLMS) Length() int { return len(f.weights) }

// StepSize returns mu.
func (f *NLMS) StepSize() float64 { return f.mu }

// Weights returns a copy of the tap weights.
func (f *NLMS) Weights() []float64 { return core.Clone(f.weights) }

// Predict returns the filter output w·x. It panics if len(x) != Length().
func (f *NLMS) Predict(x []float64) float64 {
	return floats.Dot(f.weights, x)
}

// Adapt applies w += mu*e*x/(x·x+eps). It panics if len(x) != Length().
func (f *NLMS) Adapt(x []float64, e float64) {
	f.AdaptWithEnergy(x, floats.Dot(x, x), e)
}

// AdaptWithEnergy is Adapt with a precomputed input energy x·x.
func (f *NLMS) AdaptWithEnergy(x []float64, energy, e float64) {
	floats.AddScaled(f.weights, f.mu*e/(energy+f.eps), x)
}

// Step predicts from the tap line, adapts toward desired and returns the
// prediction and the error desired-prediction.
func (f *NLMS) Step(taps *TapLine, desired float64) (y, e float64) {
	x := taps.View()
	y = f.Predict(x)
	e = desired - y
	f.AdaptWithEnergy(x, taps.Energy(), e)

	return y, e
}

// Reset zeroes the weights.
func (f *NLMS) Reset() { core.Zero(f.weights) }
