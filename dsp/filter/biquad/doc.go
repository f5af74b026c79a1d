// Package biquad provides the second-order IIR runtime used by the loudness
// weighting filters.
//
// A [Section] implements Direct Form II Transposed processing for one set of
// [Coefficients]; a [Chain] cascades sections in series. Coefficient design
// lives in dsp/filter/design.
package biquad
