package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// Clone returns a copy of src that shares no memory with it.
// A nil or empty src yields an empty non-nil slice.
func Clone(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// FitLength returns src truncated or zero-padded to exactly n samples.
// The result never aliases src.
func FitLength(src []float64, n int) []float64 {
	out := make([]float64, max(n, 0))
	copy(out, src)
	return out
}

// Peak returns the largest absolute sample value in buf.
func Peak(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
