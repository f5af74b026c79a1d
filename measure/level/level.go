// Package level computes sample-domain level statistics used to report on
// restored audio: RMS, peak, crest factor, DC offset and clipping.
package level

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClipThreshold is the absolute level at or above which a sample counts
// as clipped. It is one 16-bit LSB below full scale.
const ClipThreshold = 1 - 1.0/32768

// Stats holds sample-domain statistics of a mono buffer.
type Stats struct {
	Length int
	DC     float64 // mean
	RMS    float64
	RMSDB  float64
	Peak   float64 // max |x|
	PeakDB float64
	// CrestFactorDB is peak over RMS in dB, 0 for silence.
	CrestFactorDB  float64
	ClippedSamples int
	ZeroCrossings  int
}

// ClippedRatio returns the fraction of samples at or above ClipThreshold.
func (s Stats) ClippedRatio() float64 {
	if s.Length == 0 {
		return 0
	}

	return float64(s.ClippedSamples) / float64(s.Length)
}

// Calculate returns the statistics of samples. An empty buffer yields zero
// values with -Inf dB levels.
func Calculate(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{RMSDB: math.Inf(-1), PeakDB: math.Inf(-1)}
	}

	rms := math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
	peak := math.Max(math.Abs(floats.Max(samples)), math.Abs(floats.Min(samples)))

	s := Stats{
		Length: len(samples),
		DC:     stat.Mean(samples, nil),
		RMS:    rms,
		RMSDB:  ampToDB(rms),
		Peak:   peak,
		PeakDB: ampToDB(peak),
	}

	if rms > 0 {
		s.CrestFactorDB = 20 * math.Log10(peak/rms)
	}

	for i, x := range samples {
		if math.Abs(x) >= ClipThreshold {
			s.ClippedSamples++
		}

		if i > 0 && samples[i-1]*x < 0 {
			s.ZeroCrossings++
		}
	}

	return s
}

func ampToDB(v float64) float64 {
	if v == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(math.Abs(v))
}
