package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}

// WithEcho returns src plus a copy delayed by delay samples and scaled by gain.
func WithEcho(src []float64, delay int, gain float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	for i := delay; i < len(src); i++ {
		out[i] += gain * src[i-delay]
	}
	return out
}

// ExponentialTail returns a deterministic noise impulse response whose
// envelope decays by 60 dB over rt60 samples. The first tap is 1.
func ExponentialTail(seed int64, rt60, length int) []float64 {
	ir := DeterministicNoise(seed, 1.0, length)
	ir[0] = 1
	decay := math.Log(1000) / float64(rt60)
	for i := 1; i < length; i++ {
		ir[i] *= 0.5 * math.Exp(-decay*float64(i))
	}
	return ir
}

// Convolve returns the first len(x) samples of x * h.
func Convolve(x, h []float64) []float64 {
	out := make([]float64, len(x))
	for n := range out {
		sum := 0.0
		for k := 0; k < len(h) && k <= n; k++ {
			sum += h[k] * x[n-k]
		}
		out[n] = sum
	}
	return out
}

// Bursts returns a tone that is switched on for on samples and off for off
// samples, repeating for length samples.
func Bursts(freqHz, sampleRate, amplitude float64, on, off, length int) []float64 {
	out := DeterministicSine(freqHz, sampleRate, amplitude, length)
	period := on + off
	for i := range out {
		if i%period >= on {
			out[i] = 0
		}
	}
	return out
}
