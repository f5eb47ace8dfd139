package linsolve

import (
	"fmt"

	"github.com/control-num/dple/internal/constants"
	"github.com/control-num/dple/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// NewLyapunov returns the named discrete Lyapunov solver. Known names:
// "direct" (Kronecker-vectorized linear solve, exact up to the linear
// solver) and "smith" (squared Smith iteration, stable A only).
func NewLyapunov(name string, lin Linear, parms Parms) (DiscreteLyapunov, error) {
	switch name {
	case "direct":
		if lin == nil {
			return nil, fmt.Errorf("direct lyapunov solver needs a linear solver")
		}
		return &directLyapunov{lin: lin}, nil
	case "smith":
		return &smithLyapunov{
			tol:     parms.Get("tol", constants.DefaultSmithTolerance),
			maxIter: int(parms.Get("maxIter", constants.DefaultSmithMaxIter)),
		}, nil
	default:
		return nil, fmt.Errorf("unknown lyapunov solver: %s", name)
	}
}

// directLyapunov vectorizes A*P*A^T - P + W = 0 into
// (I - A⊗A) vec(P) = vec(W) and delegates to the linear solver.
// Exact whenever no eigenvalue product of A equals one, but dense in
// n^2 unknowns, so intended for moderate dimensions.
type directLyapunov struct {
	lin Linear
}

func (s *directLyapunov) Name() string { return "direct" }

func (s *directLyapunov) Solve(a, w *mat.Dense) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("lyapunov: A is %dx%d, want square", n, c)
	}

	m := matrix.Kron(a, a)
	m.Scale(-1, m)
	for i := 0; i < n*n; i++ {
		m.Set(i, i, m.At(i, i)+1)
	}

	rhs := mat.NewDense(n*n, 1, nil)
	rhs.SetCol(0, matrix.Vec(w).RawVector().Data)

	x, err := s.lin.Solve(m, rhs)
	if err != nil {
		return nil, fmt.Errorf("lyapunov vectorized system: %w", err)
	}

	p := matrix.Unvec(mat.NewVecDense(n*n, mat.Col(nil, 0, x)), n, n)
	matrix.Symmetrize(p)
	return p, nil
}

// smithLyapunov runs the squared Smith iteration
//
//	P <- P + E*P*E^T,  E <- E*E
//
// starting from P = W, which converges quadratically when the spectral
// radius of A is below one and diverges otherwise.
type smithLyapunov struct {
	tol     float64
	maxIter int
}

func (s *smithLyapunov) Name() string { return "smith" }

func (s *smithLyapunov) Solve(a, w *mat.Dense) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("lyapunov: A is %dx%d, want square", n, c)
	}

	p := mat.DenseCopyOf(w)
	e := mat.DenseCopyOf(a)

	prevUpdate := 0.0
	for iter := 0; iter < s.maxIter; iter++ {
		term := matrix.Congruence(e, p)
		p.Add(p, term)

		update := mat.Norm(term, 2)
		scale := mat.Norm(p, 2)
		if scale == 0 || update/scale < s.tol {
			matrix.Symmetrize(p)
			return p, nil
		}
		if iter > 0 && update > 4*prevUpdate {
			return nil, fmt.Errorf("smith iteration diverging, A is not stable")
		}
		prevUpdate = update

		var e2 mat.Dense
		e2.Mul(e, e)
		e.Copy(&e2)
	}
	return nil, fmt.Errorf("smith iteration: no convergence in %d iterations", s.maxIter)
}
