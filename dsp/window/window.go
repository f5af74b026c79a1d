// Package window generates the analysis windows used by the short-time
// transforms and the smoothing kernels used by spectral masking.
package window

import "math"

// Type identifies a window function.
type Type int

const (
	// TypeHann is the STFT analysis and synthesis window.
	TypeHann Type = iota
	// TypeTriangle builds the mask smoothing kernel.
	TypeTriangle
)

var hannCoeffs = []float64{0.5, -0.5}

var typeNames = map[Type]string{
	TypeHann:     "Hann",
	TypeTriangle: "Triangle",
}

// String returns the window name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return "Unknown"
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
	bartlett bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// WithBartlett makes TypeTriangle reach zero at both ends.
// Without it the triangle peaks at the centre sample and is zero only at x=0.
func WithBartlett() Option {
	return func(c *config) {
		c.bartlett = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic), cfg)
	}

	return out
}

// TriangleKernel returns a normalized 2-D triangular smoothing kernel with
// rows along frequency and columns along time. Each side length is 2*n+1
// with zero-valued edges trimmed, so n=0 yields the 1x1 identity kernel.
func TriangleKernel(freqHalfWidth, timeHalfWidth int) [][]float64 {
	f := triangleTaps(freqHalfWidth)
	t := triangleTaps(timeHalfWidth)

	kernel := make([][]float64, len(f))
	sum := 0.0

	for i := range f {
		kernel[i] = make([]float64, len(t))
		for j := range t {
			kernel[i][j] = f[i] * t[j]
			sum += kernel[i][j]
		}
	}

	for i := range kernel {
		for j := range kernel[i] {
			kernel[i][j] /= sum
		}
	}

	return kernel
}

func triangleTaps(halfWidth int) []float64 {
	if halfWidth <= 0 {
		return []float64{1}
	}

	// Bartlett of length 2n+3 has zero endpoints; keep the interior.
	w := Generate(TypeTriangle, 2*halfWidth+3, WithBartlett())

	return w[1 : len(w)-1]
}

func evalWindow(t Type, x float64, cfg config) float64 {
	x = math.Max(0, math.Min(1, x))

	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeTriangle:
		return triangleAt(x, cfg.bartlett)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}

func triangleAt(x float64, bartlett bool) float64 {
	if bartlett {
		return 1 - math.Abs(2*x-1)
	}

	if x <= 0.5 {
		return 2 * x
	}

	return 2 * (1 - x)
}
