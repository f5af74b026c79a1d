package loudness

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-restore/dsp/core"
)

// Measurement summarizes the loudness of a mono buffer.
type Measurement struct {
	// IntegratedLUFS is the gated programme loudness, -Inf when silent or
	// shorter than one 400 ms block.
	IntegratedLUFS float64
	// MaxMomentaryLUFS and MaxShortTermLUFS are -Inf until their window
	// has been filled once.
	MaxMomentaryLUFS float64
	MaxShortTermLUFS float64
	// Peak is the largest absolute sample value.
	Peak float64
}

// Measure runs a mono meter over samples.
func Measure(samples []float64, sampleRate int) (Measurement, error) {
	if len(samples) == 0 {
		return Measurement{}, core.ErrEmptyBuffer
	}

	if sampleRate <= 0 {
		return Measurement{}, fmt.Errorf("loudness sample rate must be > 0: %d: %w", sampleRate, core.ErrInvalidParameter)
	}

	m, err := NewMeter(WithSampleRate(float64(sampleRate)), WithChannels(1))
	if err != nil {
		return Measurement{}, err
	}

	res := Measurement{
		MaxMomentaryLUFS: math.Inf(-1),
		MaxShortTermLUFS: math.Inf(-1),
	}

	m.StartIntegration()

	frame := make([]float64, 1)
	for i, s := range samples {
		frame[0] = s
		m.ProcessSample(frame)

		n := i + 1
		if n >= m.momWindowSamples {
			res.MaxMomentaryLUFS = math.Max(res.MaxMomentaryLUFS, m.Momentary())
		}
		if n >= m.shortWindowSamples {
			res.MaxShortTermLUFS = math.Max(res.MaxShortTermLUFS, m.ShortTerm())
		}
	}

	res.IntegratedLUFS = m.Integrated()
	res.Peak = m.Peaks()[0]

	return res, nil
}

// Integrated returns the BS.1770 integrated loudness of a mono buffer in LUFS.
func Integrated(samples []float64, sampleRate int) (float64, error) {
	res, err := Measure(samples, sampleRate)
	if err != nil {
		return 0, err
	}

	return res.IntegratedLUFS, nil
}
