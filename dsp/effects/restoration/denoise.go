package restoration

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/spectrum"
	"github.com/cwbudde/algo-restore/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Denoiser reduces noise in a mono buffer. Implementations return a buffer
// of the same length and report an empty input as core.ErrEmptyBuffer.
type Denoiser interface {
	Denoise(samples []float64, sampleRate int) ([]float64, error)
}

// magnitudeFloor keeps the dB conversion finite for empty bins.
const magnitudeFloor = 1e-10

// SpectralGateConfig configures a stationary spectral gate.
type SpectralGateConfig struct {
	FFTSize int
	HopSize int
	// NoiseFrameFraction is the share of lowest-energy frames that form
	// the noise profile, in (0, 1].
	NoiseFrameFraction float64
	// NStdThresh places the gate NStdThresh standard deviations above the
	// per-bin noise mean in dB.
	NStdThresh float64
	// FreqMaskSmoothHz and TimeMaskSmoothMs are the half widths of the
	// triangular kernel applied to the binary mask.
	FreqMaskSmoothHz float64
	TimeMaskSmoothMs float64
	// PropDecrease scales how much of the gated noise is removed, in [0, 1].
	PropDecrease float64
}

// DefaultSpectralGateConfig returns a 1024/256 STFT gate at 1.5 standard
// deviations, profiled on the quietest quarter of frames.
func DefaultSpectralGateConfig() SpectralGateConfig {
	return SpectralGateConfig{
		FFTSize:            1024,
		HopSize:            256,
		NoiseFrameFraction: 0.25,
		NStdThresh:         1.5,
		FreqMaskSmoothHz:   100,
		TimeMaskSmoothMs:   50,
		PropDecrease:       1,
	}
}

// Validate checks every field.
func (c SpectralGateConfig) Validate() error {
	if err := spectrum.ValidateGeometry(c.FFTSize, c.HopSize); err != nil {
		return fmt.Errorf("gate: %w", err)
	}

	if !(c.NoiseFrameFraction > 0 && c.NoiseFrameFraction <= 1) {
		return fmt.Errorf("gate noise frame fraction must be in (0, 1]: %g: %w", c.NoiseFrameFraction, core.ErrInvalidParameter)
	}

	if !core.IsFinite(c.NStdThresh) {
		return fmt.Errorf("gate threshold must be finite: %g: %w", c.NStdThresh, core.ErrInvalidParameter)
	}

	if c.FreqMaskSmoothHz < 0 || !core.IsFinite(c.FreqMaskSmoothHz) {
		return fmt.Errorf("gate frequency smoothing must be >= 0: %g: %w", c.FreqMaskSmoothHz, core.ErrInvalidParameter)
	}

	if c.TimeMaskSmoothMs < 0 || !core.IsFinite(c.TimeMaskSmoothMs) {
		return fmt.Errorf("gate time smoothing must be >= 0: %g: %w", c.TimeMaskSmoothMs, core.ErrInvalidParameter)
	}

	if !(c.PropDecrease >= 0 && c.PropDecrease <= 1) {
		return fmt.Errorf("gate prop decrease must be in [0, 1]: %g: %w", c.PropDecrease, core.ErrInvalidParameter)
	}

	return nil
}

// SpectralGate is a stationary spectral-gating denoiser. It learns a
// per-bin noise profile from the quietest frames of the signal itself and
// attenuates time-frequency cells that do not rise above it.
type SpectralGate struct {
	cfg  SpectralGateConfig
	stft *spectrum.STFT
}

var _ Denoiser = (*SpectralGate)(nil)

// NewSpectralGate validates cfg and builds the STFT.
func NewSpectralGate(cfg SpectralGateConfig) (*SpectralGate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stft, err := spectrum.NewSTFT(cfg.FFTSize, cfg.HopSize)
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}

	return &SpectralGate{cfg: cfg, stft: stft}, nil
}

// Config returns the active configuration.
func (g *SpectralGate) Config() SpectralGateConfig { return g.cfg }

// Denoise returns the gated signal with the same length as samples.
func (g *SpectralGate) Denoise(samples []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("gate sample rate must be > 0: %d: %w", sampleRate, core.ErrInvalidParameter)
	}

	if len(samples) == 0 {
		return nil, core.ErrEmptyBuffer
	}

	if err := core.CheckFinite(samples); err != nil {
		return nil, fmt.Errorf("gate input: %w", err)
	}

	spec, err := g.stft.Forward(samples)
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}

	db := magnitudeDB(spec)
	thresh := g.noiseThreshold(db, quietestFrames(spec, g.cfg.NoiseFrameFraction))

	mask := make([][]float64, len(db))
	for k, row := range db {
		mask[k] = make([]float64, len(row))
		for t, v := range row {
			if v > thresh[k] {
				mask[k][t] = 1
			}
		}
	}

	binHz := float64(sampleRate) / float64(g.cfg.FFTSize)
	frameMs := 1000 * float64(g.cfg.HopSize) / float64(sampleRate)
	kernel := window.TriangleKernel(
		int(g.cfg.FreqMaskSmoothHz/binHz),
		int(g.cfg.TimeMaskSmoothMs/frameMs),
	)
	mask = smoothMask(mask, kernel)

	for k, row := range spec.Bins {
		for t := range row {
			gain := g.cfg.PropDecrease*mask[k][t] + (1 - g.cfg.PropDecrease)
			row[t] *= complex(gain, 0)
		}
	}

	out, err := g.stft.Inverse(spec, len(samples))
	if err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}

	if err := core.CheckFinite(out); err != nil {
		return nil, fmt.Errorf("gate output: %w", err)
	}

	core.ClipInPlace(out)

	return out, nil
}

func magnitudeDB(spec *spectrum.Spectrogram) [][]float64 {
	db := make([][]float64, spec.NumBins())
	for k, row := range spec.Bins {
		db[k] = spectrum.Magnitude(row)
		for t, m := range db[k] {
			db[k][t] = 20 * math.Log10(max(m, magnitudeFloor))
		}
	}

	return db
}

// quietestFrames returns the indices of the ceil(fraction*frames) frames
// with the lowest spectral energy.
func quietestFrames(spec *spectrum.Spectrogram, fraction float64) []int {
	frames := spec.NumFrames()
	energy := make([]float64, frames)
	power := make([]float64, frames)

	for _, row := range spec.Bins {
		spectrum.PowerInto(power, row)
		floats.Add(energy, power)
	}

	idx := make([]int, frames)
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool { return energy[idx[a]] < energy[idx[b]] })

	n := int(math.Ceil(fraction * float64(frames)))

	return idx[:max(1, min(n, frames))]
}

// noiseThreshold returns mean + NStdThresh*std of each bin's dB magnitude
// over the given frames.
func (g *SpectralGate) noiseThreshold(db [][]float64, frames []int) []float64 {
	thresh := make([]float64, len(db))
	vals := make([]float64, len(frames))

	for k, row := range db {
		for i, t := range frames {
			vals[i] = row[t]
		}

		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 || math.IsNaN(std) {
			std = 0
		}

		thresh[k] = mean + g.cfg.NStdThresh*std
	}

	return thresh
}

// smoothMask convolves mask with a centred kernel. Cells near the edges are
// renormalised by the kernel weight that falls inside the mask.
func smoothMask(mask, kernel [][]float64) [][]float64 {
	fh := len(kernel) / 2
	th := len(kernel[0]) / 2
	bins := len(mask)
	frames := len(mask[0])

	out := make([][]float64, bins)
	for k := range out {
		out[k] = make([]float64, frames)
		for t := range out[k] {
			var sum, weight float64

			for i, krow := range kernel {
				kk := k + i - fh
				if kk < 0 || kk >= bins {
					continue
				}

				for j, w := range krow {
					tt := t + j - th
					if tt < 0 || tt >= frames {
						continue
					}

					sum += w * mask[kk][tt]
					weight += w
				}
			}

			if weight > 0 {
				out[k][t] = sum / weight
			}
		}
	}

	return out
}
