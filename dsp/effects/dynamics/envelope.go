package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
)

// TimeConstantCoeff returns the one-pole smoothing coefficient
// exp(-1/(sampleRate*seconds)). A non-positive time constant yields 0, which
// makes the follower track its input instantly.
func TimeConstantCoeff(sampleRate, seconds float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1 / (sampleRate * seconds))
}

// EnvelopeStep advances a peak envelope by one rectified sample. Rising
// levels are smoothed with attackCoeff and falling levels with releaseCoeff.
func EnvelopeStep(env, level, attackCoeff, releaseCoeff float64) float64 {
	if level > env {
		return attackCoeff*env + (1-attackCoeff)*level
	}

	return releaseCoeff*env + (1-releaseCoeff)*level
}

// EnvelopeFollower is a first-order attack/release peak follower.
// It is not safe for concurrent use.
type EnvelopeFollower struct {
	attackCoeff  float64
	releaseCoeff float64
	env          float64
}

// NewEnvelopeFollower creates a follower with time constants in seconds.
func NewEnvelopeFollower(sampleRate, attackSec, releaseSec float64) (*EnvelopeFollower, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("envelope sample rate must be > 0: %f: %w", sampleRate, core.ErrInvalidParameter)
	}

	if attackSec < 0 || !core.IsFinite(attackSec) {
		return nil, fmt.Errorf("envelope attack must be >= 0: %f: %w", attackSec, core.ErrInvalidParameter)
	}

	if releaseSec < 0 || !core.IsFinite(releaseSec) {
		return nil, fmt.Errorf("envelope release must be >= 0: %f: %w", releaseSec, core.ErrInvalidParameter)
	}

	return &EnvelopeFollower{
		attackCoeff:  TimeConstantCoeff(sampleRate, attackSec),
		releaseCoeff: TimeConstantCoeff(sampleRate, releaseSec),
	}, nil
}

// Process rectifies x, advances the envelope and returns its new value.
func (e *EnvelopeFollower) Process(x float64) float64 {
	e.env = core.FlushDenormals(EnvelopeStep(e.env, math.Abs(x), e.attackCoeff, e.releaseCoeff))
	return e.env
}

// Value returns the current envelope.
func (e *EnvelopeFollower) Value() float64 { return e.env }

// SetValue overrides the envelope state.
func (e *EnvelopeFollower) SetValue(v float64) { e.env = v }

// AttackCoeff returns the attack smoothing coefficient.
func (e *EnvelopeFollower) AttackCoeff() float64 { return e.attackCoeff }

// ReleaseCoeff returns the release smoothing coefficient.
func (e *EnvelopeFollower) ReleaseCoeff() float64 { return e.releaseCoeff }

// Reset sets the envelope back to zero.
func (e *EnvelopeFollower) Reset() { e.env = 0 }
