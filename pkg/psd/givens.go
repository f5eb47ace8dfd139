package psd

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// givens is a plane rotation G = [c s; -s c] acting on two coordinates.
type givens struct {
	c, s float64
}

// makeGivens returns the rotation with G * [a b]^T = [r 0]^T.
func makeGivens(a, b float64) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	r := math.Hypot(a, b)
	return givens{c: a / r, s: b / r}
}

// applyLeft overwrites rows (i1, i2) of m with G times those rows,
// touching columns [from, to).
func (g givens) applyLeft(m *mat.Dense, i1, i2, from, to int) {
	for j := from; j < to; j++ {
		a, b := m.At(i1, j), m.At(i2, j)
		m.Set(i1, j, g.c*a+g.s*b)
		m.Set(i2, j, -g.s*a+g.c*b)
	}
}

// applyRight overwrites columns (j1, j2) of m with those columns times
// G^T, touching rows [from, to).
func (g givens) applyRight(m *mat.Dense, j1, j2, from, to int) {
	for i := from; i < to; i++ {
		a, b := m.At(i, j1), m.At(i, j2)
		m.Set(i, j1, g.c*a+g.s*b)
		m.Set(i, j2, -g.s*a+g.c*b)
	}
}
