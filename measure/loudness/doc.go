// Package loudness implements ITU-R BS.1770 / EBU R128 loudness metering.
//
// [Meter] is the streaming form with momentary (400 ms), short-term (3 s)
// and gated integrated loudness. [Integrated] and [Measure] run a meter over
// a whole mono buffer.
package loudness
