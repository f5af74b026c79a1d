package restoration

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// diagonalLoading is the relative ridge added to the correlation matrix
// diagonal, scaled by its mean diagonal value.
const diagonalLoading = 1e-10

// normalEquations holds the K x K Hermitian system R g = p of one WPE bin
// together with the real 2K x 2K embedding handed to gonum.
type normalEquations struct {
	k   int
	r   []complex128
	p   []complex128
	a   *mat.Dense
	b   *mat.VecDense
	sol *mat.VecDense
	g   []complex128
}

func newNormalEquations(k int) *normalEquations {
	return &normalEquations{
		k:   k,
		r:   make([]complex128, k*k),
		p:   make([]complex128, k),
		a:   mat.NewDense(2*k, 2*k, nil),
		b:   mat.NewVecDense(2*k, nil),
		sol: mat.NewVecDense(2*k, nil),
		g:   make([]complex128, k),
	}
}

func (ne *normalEquations) reset() {
	clear(ne.r)
	clear(ne.p)
}

// accumulate adds x x^H * w to R and x conj(target) * w to p, filling only
// the upper triangle of R.
func (ne *normalEquations) accumulate(x []complex128, target complex128, w float64) {
	ct := cmplx.Conj(target)

	for i, xi := range x {
		if xi == 0 {
			continue
		}

		wx := xi * complex(w, 0)
		ne.p[i] += wx * ct

		row := ne.r[i*ne.k : (i+1)*ne.k]
		for j := i; j < ne.k; j++ {
			row[j] += wx * cmplx.Conj(x[j])
		}
	}
}

// solve returns g = R^-1 p, or false when R carries no energy or the system
// cannot be solved. The returned slice is reused by the next call.
func (ne *normalEquations) solve() ([]complex128, bool) {
	k := ne.k

	var trace float64
	for i := range k {
		trace += real(ne.r[i*k+i])
	}

	if !(trace > 0) {
		return nil, false
	}

	load := diagonalLoading * trace / float64(k)

	// [Re R  -Im R] [Re g]   [Re p]
	// [Im R   Re R] [Im g] = [Im p]
	for i := range k {
		for j := range k {
			var v complex128
			if j >= i {
				v = ne.r[i*k+j]
			} else {
				v = cmplx.Conj(ne.r[j*k+i])
			}

			re, im := real(v), imag(v)
			if i == j {
				re += load
				im = 0
			}

			ne.a.Set(i, j, re)
			ne.a.Set(i, j+k, -im)
			ne.a.Set(i+k, j, im)
			ne.a.Set(i+k, j+k, re)
		}

		ne.b.SetVec(i, real(ne.p[i]))
		ne.b.SetVec(i+k, imag(ne.p[i]))
	}

	if err := ne.sol.SolveVec(ne.a, ne.b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}

	for i := range k {
		ne.g[i] = complex(ne.sol.AtVec(i), ne.sol.AtVec(i+k))
		if cmplx.IsNaN(ne.g[i]) || cmplx.IsInf(ne.g[i]) {
			return nil, false
		}
	}

	return ne.g, true
}
