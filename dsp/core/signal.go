package core

import (
	"fmt"
	"time"
)

// Signal is a mono buffer of samples nominally in [-1, 1] tagged with its
// sample rate in Hz.
//
// Processing stages treat a Signal as a value: they read Samples and return
// a new Signal instead of writing into the input slice.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// NewSignal copies samples into a new Signal after validating the rate.
// Empty sample slices are accepted here and rejected by the stages.
func NewSignal(samples []float64, sampleRate int) (Signal, error) {
	if sampleRate <= 0 {
		return Signal{}, fmt.Errorf("signal sample rate must be > 0: %d: %w", sampleRate, ErrInvalidParameter)
	}

	return Signal{Samples: Clone(samples), SampleRate: sampleRate}, nil
}

// Validate checks the preconditions every stage shares.
func (s Signal) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("signal sample rate must be > 0: %d: %w", s.SampleRate, ErrInvalidParameter)
	}

	if len(s.Samples) == 0 {
		return ErrEmptyBuffer
	}

	return nil
}

// Len returns the number of samples.
func (s Signal) Len() int { return len(s.Samples) }

// Duration returns the playback length of the signal.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy of s.
func (s Signal) Clone() Signal {
	return Signal{Samples: Clone(s.Samples), SampleRate: s.SampleRate}
}

// WithSamples returns a Signal carrying samples at the same rate as s.
func (s Signal) WithSamples(samples []float64) Signal {
	return Signal{Samples: samples, SampleRate: s.SampleRate}
}

// Clip returns a copy of samples with every value limited to [-1, 1].
// NaN values are kept so CheckFinite can still report them.
func Clip(samples []float64) []float64 {
	out := Clone(samples)
	ClipInPlace(out)
	return out
}

// ClipInPlace limits every value in buf to [-1, 1].
func ClipInPlace(buf []float64) {
	for i, v := range buf {
		switch {
		case v > 1:
			buf[i] = 1
		case v < -1:
			buf[i] = -1
		}
	}
}

// LengthMatch returns ErrInvalidParameter when a and b differ in length.
func LengthMatch(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("length mismatch: %d != %d: %w", len(a), len(b), ErrInvalidParameter)
	}

	return nil
}

// CheckFinite returns ErrNumericInstability for the first NaN or Inf in buf.
func CheckFinite(buf []float64) error {
	for i, v := range buf {
		if !IsFinite(v) {
			return fmt.Errorf("non-finite sample %v at index %d: %w", v, i, ErrNumericInstability)
		}
	}

	return nil
}
