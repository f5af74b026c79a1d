// Package dynamics provides the level-shaping stages of the restoration
// chain.
//
//   - EnvelopeFollower: attack/release peak follower.
//   - Compressor: feed-forward compressor with a quadratic soft knee driven
//     by the envelope follower.
//   - Normalizer: BS.1770 integrated loudness normalization.
//
// All processors work on whole mono buffers, return new slices and clip
// their output to [-1, 1].
package dynamics
