package adaptive

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp/core"
	"gonum.org/v1/gonum/floats"
)

// energyRefresh bounds float drift in the running energy sum.
const energyRefresh = 4096

// TapLine is a fixed-length history of input samples. View returns the
// history newest first as a contiguous slice backed by a mirrored buffer.
type TapLine struct {
	buf    []float64
	pos    int
	n      int
	energy float64
	pushes int
}

// NewTapLine returns a zeroed history of length samples.
func NewTapLine(length int) (*TapLine, error) {
	if length <= 0 {
		return nil, fmt.Errorf("tap line length must be > 0: %d: %w", length, core.ErrInvalidParameter)
	}

	return &TapLine{buf: make([]float64, 2*length), n: length}, nil
}

// Length returns the number of samples held.
func (t *TapLine) Length() int { return t.n }

// Push inserts x as the newest sample and drops the oldest.
func (t *TapLine) Push(x float64) {
	t.pos--
	if t.pos < 0 {
		t.pos = t.n - 1
	}

	old := t.buf[t.pos]
	t.buf[t.pos] = x
	t.buf[t.pos+t.n] = x

	t.pushes++
	if t.pushes >= energyRefresh {
		t.pushes = 0
		t.energy = floats.Dot(t.View(), t.View())

		return
	}

	t.energy += x*x - old*old
	if t.energy < 0 {
		t.energy = 0
	}
}

// View returns the history with the newest sample at index 0. The slice is
// only valid until the next Push or Reset.
func (t *TapLine) View() []float64 {
	return t.buf[t.pos : t.pos+t.n]
}

// Energy returns the sum of squares of the held samples.
func (t *TapLine) Energy() float64 { return t.energy }

// Reset zeroes the history.
func (t *TapLine) Reset() {
	core.Zero(t.buf)
	t.pos = 0
	t.energy = 0
	t.pushes = 0
}
