package loudness

import (
	"math"

	"github.com/cwbudde/algo-restore/dsp/filter/biquad"
	"github.com/cwbudde/algo-restore/dsp/filter/weighting"
)

const (
	// Integration window durations in seconds.
	momentaryDuration = 0.4
	shortTermDuration = 3.0

	// Gating parameters.
	absThreshold    = -70.0
	relThreshold    = -10.0
	blockOverlap    = 0.75
	blockStepFactor = 1.0 - blockOverlap

	// loudnessOffset cancels the K-weighting gain at 997 Hz.
	loudnessOffset = -0.691
	lufsFloor      = -120.0
)

// Meter implements EBU R128 / ITU-R BS.1770 loudness metering.
type Meter struct {
	sampleRate float64
	channels   int

	kFilters []*biquad.Chain

	momWindowSamples   int
	shortWindowSamples int
	momHistory         [][]float64 // squared K-weighted samples
	shortHistory       [][]float64
	momWriteIdx        int
	shortWriteIdx      int
	momRunningSums     []float64
	shortRunningSums   []float64

	integrationRunning bool
	integratedSamples  int
	blockStep          int

	// Gating blocks: mean square of the last 400 ms summed over channels.
	blocks []float64

	peaks []float64
}

// NewMeter creates a new loudness meter with the given options.
// It fails when the sample rate is too low for K-weighting.
func NewMeter(opts ...MeterOption) (*Meter, error) {
	cfg := ApplyMeterOptions(opts...)

	m := &Meter{
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
	}

	m.kFilters = make([]*biquad.Chain, m.channels)
	for i := range m.channels {
		chain, err := weighting.New(weighting.TypeK, m.sampleRate)
		if err != nil {
			return nil, err
		}
		m.kFilters[i] = chain
	}

	m.momWindowSamples = max(int(math.Round(momentaryDuration*m.sampleRate)), 1)
	m.shortWindowSamples = max(int(math.Round(shortTermDuration*m.sampleRate)), 1)
	m.blockStep = max(int(math.Round(momentaryDuration*blockStepFactor*m.sampleRate)), 1)

	m.momHistory = make([][]float64, m.channels)
	m.shortHistory = make([][]float64, m.channels)
	for i := range m.channels {
		m.momHistory[i] = make([]float64, m.momWindowSamples)
		m.shortHistory[i] = make([]float64, m.shortWindowSamples)
	}

	m.momRunningSums = make([]float64, m.channels)
	m.shortRunningSums = make([]float64, m.channels)
	m.peaks = make([]float64, m.channels)

	m.Reset()

	return m, nil
}

// Reset clears all integration state and peak values.
func (m *Meter) Reset() {
	for i := range m.channels {
		m.kFilters[i].Reset()
		clear(m.momHistory[i])
		clear(m.shortHistory[i])
		m.momRunningSums[i] = 0
		m.shortRunningSums[i] = 0
		m.peaks[i] = 0
	}

	m.momWriteIdx = 0
	m.shortWriteIdx = 0
	m.integratedSamples = 0
	m.blocks = nil
}

// StartIntegration starts accumulating blocks for integrated loudness.
func (m *Meter) StartIntegration() {
	m.integrationRunning = true
}

// StopIntegration stops accumulating blocks for integrated loudness.
func (m *Meter) StopIntegration() {
	m.integrationRunning = false
}

// ProcessSample processes one frame holding a sample per channel.
// Frames shorter than the channel count are ignored.
func (m *Meter) ProcessSample(frame []float64) {
	if len(frame) < m.channels {
		return
	}

	for i := range m.channels {
		val := m.kFilters[i].ProcessSample(frame[i])

		if a := math.Abs(frame[i]); a > m.peaks[i] {
			m.peaks[i] = a
		}

		sq := val * val

		old := m.momHistory[i][m.momWriteIdx]
		m.momHistory[i][m.momWriteIdx] = sq
		m.momRunningSums[i] = math.Max(m.momRunningSums[i]+sq-old, 0)

		old = m.shortHistory[i][m.shortWriteIdx]
		m.shortHistory[i][m.shortWriteIdx] = sq
		m.shortRunningSums[i] = math.Max(m.shortRunningSums[i]+sq-old, 0)
	}

	m.momWriteIdx = (m.momWriteIdx + 1) % m.momWindowSamples
	m.shortWriteIdx = (m.shortWriteIdx + 1) % m.shortWindowSamples

	if !m.integrationRunning {
		return
	}

	m.integratedSamples++

	// Only complete 400 ms blocks take part in gating, one every 100 ms.
	if m.integratedSamples < m.momWindowSamples {
		return
	}

	if (m.integratedSamples-m.momWindowSamples)%m.blockStep == 0 {
		m.blocks = append(m.blocks, m.momentaryMeanSquare())
	}
}

// ProcessBlock processes a block of interleaved samples.
func (m *Meter) ProcessBlock(block []float64) {
	for i := 0; i+m.channels <= len(block); i += m.channels {
		m.ProcessSample(block[i : i+m.channels])
	}
}

func (m *Meter) momentaryMeanSquare() float64 {
	sum := 0.0
	for i := range m.channels {
		sum += m.momRunningSums[i] / float64(m.momWindowSamples)
	}

	return sum
}

// Momentary returns the current momentary loudness in LUFS.
func (m *Meter) Momentary() float64 {
	return toLUFS(m.momentaryMeanSquare())
}

// ShortTerm returns the current short-term loudness in LUFS.
func (m *Meter) ShortTerm() float64 {
	sum := 0.0
	for i := range m.channels {
		sum += m.shortRunningSums[i] / float64(m.shortWindowSamples)
	}

	return toLUFS(sum)
}

// Integrated returns the gated integrated loudness in LUFS since
// StartIntegration, or -Inf when no block passes the gates.
func (m *Meter) Integrated() float64 {
	return gatedLoudness(m.blocks)
}

// BlockCount returns the number of complete gating blocks collected.
func (m *Meter) BlockCount() int {
	return len(m.blocks)
}

// Peaks returns the maximum absolute sample value per channel since Reset.
func (m *Meter) Peaks() []float64 {
	p := make([]float64, m.channels)
	copy(p, m.peaks)

	return p
}

func gatedLoudness(blocks []float64) float64 {
	var (
		absGatedSum   float64
		absGatedCount int
	)

	for _, b := range blocks {
		if toLUFS(b) > absThreshold {
			absGatedSum += b
			absGatedCount++
		}
	}

	if absGatedCount == 0 {
		return math.Inf(-1)
	}

	gammaRel := toLUFS(absGatedSum/float64(absGatedCount)) + relThreshold

	var (
		relGatedSum   float64
		relGatedCount int
	)

	for _, b := range blocks {
		l := toLUFS(b)
		if l > absThreshold && l > gammaRel {
			relGatedSum += b
			relGatedCount++
		}
	}

	if relGatedCount == 0 {
		return math.Inf(-1)
	}

	return toLUFS(relGatedSum / float64(relGatedCount))
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return lufsFloor
	}

	return loudnessOffset + 10.0*math.Log10(meanSquare)
}
