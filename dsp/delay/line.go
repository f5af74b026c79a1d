package delay

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp/core"
)

// Line is a fixed integer delay. Tick writes one sample and returns the
// sample written delay ticks earlier, or zero while the line is filling.
type Line struct {
	buffer   []float64
	writePos int
	delay    int
}

// New returns a line that delays its input by delay samples.
func New(delay int) (*Line, error) {
	if delay < 0 {
		return nil, fmt.Errorf("delay must be >= 0: %d: %w", delay, core.ErrInvalidParameter)
	}

	return &Line{buffer: make([]float64, delay+1), delay: delay}, nil
}

// Delay returns the configured delay in samples.
func (d *Line) Delay() int { return d.delay }

// Tick pushes x and returns x delayed by Delay samples.
func (d *Line) Tick(x float64) float64 {
	d.buffer[d.writePos] = x

	readPos := d.writePos - d.delay
	if readPos < 0 {
		readPos += len(d.buffer)
	}

	out := d.buffer[readPos]

	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}

	return out
}

// ProcessInto writes src delayed by Delay samples into dst. The line state
// carries across calls.
func (d *Line) ProcessInto(dst, src []float64) {
	for i, x := range src {
		dst[i] = d.Tick(x)
	}
}

// Reset clears line state.
func (d *Line) Reset() {
	core.Zero(d.buffer)
	d.writePos = 0
}
