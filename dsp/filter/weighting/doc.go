// Package weighting provides the frequency weighting curves used by the
// loudness meter.
//
//   - K-weighting per ITU-R BS.1770: a +4 dB high shelf around 1.5 kHz that
//     models head diffraction, cascaded with a 38 Hz high-pass (RLB curve).
//     The curve is not normalized at 1 kHz; BS.1770 absorbs its 997 Hz gain
//     into the -0.691 dB loudness offset.
//   - Z-weighting: unity gain at all frequencies.
//
// The returned [biquad.Chain] can be used sample by sample or on whole blocks.
package weighting
