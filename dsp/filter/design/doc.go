// Package design provides the RBJ-style biquad designers behind the
// loudness weighting curves.
//
// Designers return zero-valued coefficients when the frequency lies outside
// (0, Nyquist) or the sample rate is not positive, so callers can check the
// result against biquad.Coefficients{}.
package design
