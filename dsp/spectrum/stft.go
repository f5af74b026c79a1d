package spectrum

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const (
	minFFTSize = 16
	olaFloor   = 1e-12
)

// Spectrogram is a one-sided STFT stored bin-major: Bins[k][t] is bin k of
// frame t, so each bin's time trajectory is contiguous.
type Spectrogram struct {
	Bins    [][]complex128
	FFTSize int
	HopSize int
}

// NumBins returns FFTSize/2+1.
func (s *Spectrogram) NumBins() int { return len(s.Bins) }

// NumFrames returns the number of analysis frames.
func (s *Spectrogram) NumFrames() int {
	if len(s.Bins) == 0 {
		return 0
	}
	return len(s.Bins[0])
}

// Clone returns a deep copy.
func (s *Spectrogram) Clone() *Spectrogram {
	out := &Spectrogram{
		Bins:    make([][]complex128, len(s.Bins)),
		FFTSize: s.FFTSize,
		HopSize: s.HopSize,
	}
	for k, row := range s.Bins {
		out.Bins[k] = append([]complex128(nil), row...)
	}
	return out
}

// STFT is a reusable forward/inverse short-time Fourier transform.
//
// An STFT owns scratch buffers and is not safe for concurrent use.
type STFT struct {
	fftSize int
	hopSize int

	plan   *algofft.Plan[complex128]
	window []float64

	frame    []complex128
	timeBuf  []complex128
	realBuf  []float64
	winFrame []float64
}

// NewSTFT creates a transform with a periodic Hann window. fftSize must be a
// power of two >= 16 and hopSize must lie in [1, fftSize].
func NewSTFT(fftSize, hopSize int) (*STFT, error) {
	if err := ValidateGeometry(fftSize, hopSize); err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	return &STFT{
		fftSize:  fftSize,
		hopSize:  hopSize,
		plan:     plan,
		window:   window.Generate(window.TypeHann, fftSize, window.WithPeriodic()),
		frame:    make([]complex128, fftSize),
		timeBuf:  make([]complex128, fftSize),
		realBuf:  make([]float64, fftSize),
		winFrame: make([]float64, fftSize),
	}, nil
}

// ValidateGeometry checks the frame and hop sizes NewSTFT accepts.
func ValidateGeometry(fftSize, hopSize int) error {
	if !core.IsPowerOfTwo(fftSize) || fftSize < minFFTSize {
		return fmt.Errorf("stft fft size must be a power of two >= %d: %d: %w",
			minFFTSize, fftSize, core.ErrInvalidParameter)
	}

	if hopSize < 1 || hopSize > fftSize {
		return fmt.Errorf("stft hop size must be in [1, %d]: %d: %w",
			fftSize, hopSize, core.ErrInvalidParameter)
	}

	return nil
}

// FFTSize returns the frame length.
func (s *STFT) FFTSize() int { return s.fftSize }

// HopSize returns the frame advance in samples.
func (s *STFT) HopSize() int { return s.hopSize }

// NumFrames returns the frame count Forward produces for n input samples.
func (s *STFT) NumFrames(n int) int {
	return 1 + n/s.hopSize
}

// Forward analyses samples into a centred spectrogram.
func (s *STFT) Forward(samples []float64) (*Spectrogram, error) {
	if len(samples) == 0 {
		return nil, core.ErrEmptyBuffer
	}

	pad := s.fftSize / 2
	frames := s.NumFrames(len(samples))
	bins := s.fftSize/2 + 1

	spec := &Spectrogram{
		Bins:    make([][]complex128, bins),
		FFTSize: s.fftSize,
		HopSize: s.hopSize,
	}
	for k := range spec.Bins {
		spec.Bins[k] = make([]complex128, frames)
	}

	for t := range frames {
		start := t*s.hopSize - pad

		for i := range s.realBuf {
			idx := start + i
			if idx >= 0 && idx < len(samples) {
				s.realBuf[i] = samples[idx]
			} else {
				s.realBuf[i] = 0
			}
		}

		vecmath.MulBlockInPlace(s.realBuf, s.window)

		for i, v := range s.realBuf {
			s.frame[i] = complex(v, 0)
		}

		if err := s.plan.Forward(s.frame, s.frame); err != nil {
			return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
		}

		for k := range bins {
			spec.Bins[k][t] = s.frame[k]
		}
	}

	return spec, nil
}

// Inverse resynthesises spec and returns exactly length samples, truncating
// or zero-padding the overlap-add output as needed.
func (s *STFT) Inverse(spec *Spectrogram, length int) ([]float64, error) {
	if spec == nil || spec.NumFrames() == 0 {
		return nil, core.ErrEmptyBuffer
	}

	if spec.FFTSize != s.fftSize || spec.HopSize != s.hopSize || spec.NumBins() != s.fftSize/2+1 {
		return nil, fmt.Errorf("stft: spectrogram geometry %d/%d does not match transform %d/%d: %w",
			spec.FFTSize, spec.HopSize, s.fftSize, s.hopSize, core.ErrInvalidParameter)
	}

	if length <= 0 {
		return nil, fmt.Errorf("stft: target length must be > 0: %d: %w", length, core.ErrInvalidParameter)
	}

	half := s.fftSize / 2
	frames := spec.NumFrames()
	total := s.fftSize + s.hopSize*(frames-1)

	acc := make([]float64, total)
	norm := make([]float64, total)

	for t := range frames {
		s.frame[0] = complex(real(spec.Bins[0][t]), 0)
		s.frame[half] = complex(real(spec.Bins[half][t]), 0)

		for k := 1; k < half; k++ {
			v := spec.Bins[k][t]
			s.frame[k] = v
			s.frame[s.fftSize-k] = complex(real(v), -imag(v))
		}

		if err := s.plan.Inverse(s.timeBuf, s.frame); err != nil {
			return nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
		}

		for i, c := range s.timeBuf {
			s.realBuf[i] = real(c)
		}

		vecmath.MulBlock(s.winFrame, s.realBuf, s.window)

		pos := t * s.hopSize
		for i, w := range s.window {
			acc[pos+i] += s.winFrame[i]
			norm[pos+i] += w * w
		}
	}

	for i := range acc {
		if norm[i] > olaFloor {
			acc[i] /= norm[i]
		}
	}

	end := min(half+length, total)

	return core.FitLength(acc[half:end], length), nil
}
