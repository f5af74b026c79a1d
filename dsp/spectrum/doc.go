// Package spectrum provides the short-time Fourier transform pair used by the
// restoration stages and small helpers over complex spectrum bins.
//
// STFT frames are centred: the input is zero-padded by half a frame on both
// sides, analysed with a periodic Hann window, and resynthesised by windowed
// overlap-add normalized by the summed squared window. With that convention a
// forward/inverse round trip reproduces the input for any hop up to half the
// frame size.
package spectrum
