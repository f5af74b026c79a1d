package spectrum

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

func split(in []complex128, re, im []float64) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}

// Magnitude returns |X[k]| for each complex spectrum bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	MagnitudeInto(out, in)
	return out
}

// MagnitudeInto writes |X[k]| into dst, which must be at least len(in) long.
// Scratch buffers are pooled, so steady-state calls do not allocate.
func MagnitudeInto(dst []float64, in []complex128) {
	re, im, buf := getScratch(len(in))
	split(in, re, im)
	vecmath.Magnitude(dst[:len(in)], re, im)
	putScratch(buf)
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	PowerInto(out, in)
	return out
}

// PowerInto writes |X[k]|^2 into dst, which must be at least len(in) long.
func PowerInto(dst []float64, in []complex128) {
	re, im, buf := getScratch(len(in))
	split(in, re, im)
	vecmath.Power(dst[:len(in)], re, im)
	putScratch(buf)
}
