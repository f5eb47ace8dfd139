// Package matrix provides the dense-matrix helpers shared by the periodic
// Lyapunov solver: symmetry handling, congruence products, spectral radius,
// Cholesky factors, and the Kronecker/vec primitives used by the
// vectorized solves. All routines are thin layers over gonum/mat.
package matrix

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// infinitesimal value to check float equality
const DefaultEpsilon = 1e-9

// FloatEqual checks if two float64 numbers are approximately equal within a given epsilon.
func FloatEqual(a, b, epsilon float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)

	// Combine absolute and relative tolerance so very small and very
	// large magnitudes are both handled.
	if a == 0.0 || b == 0.0 || diff < math.SmallestNonzeroFloat64 {
		return diff < epsilon
	}
	return diff/(math.Abs(a)+math.Abs(b)) < epsilon
}

// IsSymmetric checks if a given mat.Matrix is symmetric.
func IsSymmetric(m mat.Matrix, epsilon float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}

	// Only the strict upper triangle needs checking against its mirror.
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if !FloatEqual(m.At(i, j), m.At(j, i), epsilon) {
				return false
			}
		}
	}
	return true
}

// Symmetrize averages m with its transpose in place. Removes the
// round-off drift that accumulates in P_k during propagation.
func Symmetrize(m *mat.Dense) {
	r, c := m.Dims()
	if r != c {
		return
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			avg := 0.5 * (m.At(i, j) + m.At(j, i))
			m.Set(i, j, avg)
			m.Set(j, i, avg)
		}
	}
}

// Congruence returns A * P * A^T.
func Congruence(a, p *mat.Dense) *mat.Dense {
	r, _ := a.Dims()
	var ap mat.Dense
	ap.Mul(a, p)
	out := mat.NewDense(r, r, nil)
	out.Mul(&ap, a.T())
	return out
}

// SpectralRadius returns the largest eigenvalue modulus of m.
func SpectralRadius(m *mat.Dense) (float64, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(m, mat.EigenNone); !ok {
		return 0, fmt.Errorf("eigenvalue computation failed")
	}
	rho := 0.0
	for _, v := range eig.Values(nil) {
		if r := cmplx.Abs(v); r > rho {
			rho = r
		}
	}
	return rho, nil
}

// CholeskyFactor returns the lower factor L with p = L * L^T. The input
// is symmetrized first; if factorization fails, the diagonal is lifted by
// numZero once before giving up. Semidefinite inputs that are singular
// beyond that lift report an error.
func CholeskyFactor(p *mat.Dense, numZero float64) (*mat.Dense, error) {
	n, c := p.Dims()
	if n != c {
		return nil, fmt.Errorf("cholesky of a %dx%d matrix", n, c)
	}

	work := mat.DenseCopyOf(p)
	Symmetrize(work)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, work.At(i, j))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		// lift the diagonal once to absorb semidefinite round-off
		for i := 0; i < n; i++ {
			sym.SetSym(i, i, sym.At(i, i)+numZero)
		}
		if ok := chol.Factorize(sym); !ok {
			return nil, fmt.Errorf("matrix is not positive definite")
		}
	}

	var lower mat.TriDense
	chol.LTo(&lower)
	out := mat.NewDense(n, n, nil)
	out.Copy(&lower)
	return out, nil
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b *mat.Dense) *mat.Dense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	out := mat.NewDense(ra*rb, ca*cb, nil)
	out.Kronecker(a, b)
	return out
}

// Vec stacks the columns of m into a single vector, so that
// vec(A X B^T) = (B ⊗ A) vec(X).
func Vec(m *mat.Dense) *mat.VecDense {
	r, c := m.Dims()
	v := mat.NewVecDense(r*c, nil)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			v.SetVec(j*r+i, m.At(i, j))
		}
	}
	return v
}

// Unvec rebuilds an r x c matrix from its column-stacked vector.
func Unvec(v *mat.VecDense, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			m.Set(i, j, v.AtVec(j*r+i))
		}
	}
	return m
}

// BlockDiag assembles square blocks into one block-diagonal matrix.
func BlockDiag(blocks []*mat.Dense) *mat.Dense {
	total := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		total += r
	}
	out := mat.NewDense(total, total, nil)
	offset := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		out.Slice(offset, offset+r, offset, offset+r).(*mat.Dense).Copy(b)
		offset += r
	}
	return out
}

// ExtractBlocks splits the diagonal of m into square blocks of the given
// sizes. The sizes must sum to the dimension of m.
func ExtractBlocks(m *mat.Dense, sizes []int) ([]*mat.Dense, error) {
	n, c := m.Dims()
	if n != c {
		return nil, fmt.Errorf("block extraction from a %dx%d matrix", n, c)
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != n {
		return nil, fmt.Errorf("block sizes sum to %d, want %d", total, n)
	}

	blocks := make([]*mat.Dense, len(sizes))
	offset := 0
	for i, s := range sizes {
		blocks[i] = mat.DenseCopyOf(m.Slice(offset, offset+s, offset, offset+s))
		offset += s
	}
	return blocks, nil
}
