package solver

import (
	"fmt"
	"time"

	"github.com/control-num/dple/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// simpleStrategy vectorizes the whole periodic recurrence into one
// K n^2 x K n^2 linear system
//
//	vec(P_{k+1 mod K}) - (A_k ⊗ A_k) vec(P_k) = vec(V_k)
//
// and hands it to the injected linear solver in one shot. No structure
// is exploited; this is the baseline for cross-checks and only suitable
// when a regular, well-conditioned linear solver is available.
type simpleStrategy struct{}

func (st *simpleStrategy) Name() string { return "simple" }

func (st *simpleStrategy) Solve(prob *Problem, opts *solveOptions, stats *Stats) ([]*mat.Dense, error) {
	k := len(prob.A)
	n, _ := prob.A[0].Dims()
	nn := n * n
	dim := k * nn

	lhs := mat.NewDense(dim, dim, nil)
	rhs := mat.NewDense(dim, 1, nil)
	for idx := 0; idx < k; idx++ {
		row := (idx + 1) % k

		// identity at the target block
		for i := 0; i < nn; i++ {
			lhs.Set(row*nn+i, row*nn+i, lhs.At(row*nn+i, row*nn+i)+1)
		}
		// -(A_k ⊗ A_k) at the source block
		kron := matrix.Kron(prob.A[idx], prob.A[idx])
		dst := lhs.Slice(row*nn, row*nn+nn, idx*nn, idx*nn+nn).(*mat.Dense)
		var neg mat.Dense
		neg.Scale(-1, kron)
		dst.Add(dst, &neg)

		v := matrix.Vec(prob.V[idx])
		for i := 0; i < nn; i++ {
			rhs.Set(row*nn+i, 0, rhs.At(row*nn+i, 0)+v.AtVec(i))
		}
	}

	t0 := time.Now()
	x, err := opts.lin.Solve(lhs, rhs)
	stats.Add(TimerLinearSolve, time.Since(t0))
	if err != nil {
		return nil, &LinearSolverError{Strategy: st.Name(), Err: fmt.Errorf("vectorized boundary system: %w", err)}
	}

	out := make([]*mat.Dense, k)
	col := mat.Col(nil, 0, x)
	for idx := 0; idx < k; idx++ {
		v := mat.NewVecDense(nn, col[idx*nn:(idx+1)*nn])
		out[idx] = matrix.Unvec(v, n, n)
		matrix.Symmetrize(out[idx])
	}
	return out, nil
}
