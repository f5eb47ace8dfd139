package solver

import (
	"fmt"
	"time"

	"github.com/control-num/dple/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// condensingStrategy collapses the whole period into one ordinary
// discrete Lyapunov equation: with Pi = A_{K-1}...A_0 and W the noise
// accumulated over one period, P_0 solves Pi P_0 Pi^T - P_0 + W = 0, and
// the remaining P_k follow by forward propagation.
//
// Cheaper than lifting for small K, but the conditioning of Pi compounds
// with the period: accuracy degrades as K grows. That trade-off is
// inherent to the method and is not guarded against here.
type condensingStrategy struct{}

func (st *condensingStrategy) Name() string { return "condensing" }

func (st *condensingStrategy) Solve(prob *Problem, opts *solveOptions, stats *Stats) ([]*mat.Dense, error) {
	k := len(prob.A)
	n, _ := prob.A[0].Dims()

	// accumulate backward: after the loop g = A_{K-1}...A_0 and
	// w = sum over the period of the propagated V_k contributions
	g := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		g.Set(i, i, 1)
	}
	w := mat.NewDense(n, n, nil)
	for idx := k - 1; idx >= 0; idx-- {
		w.Add(w, matrix.Congruence(g, prob.V[idx]))
		var tmp mat.Dense
		tmp.Mul(g, prob.A[idx])
		g.Copy(&tmp)
	}

	t0 := time.Now()
	p0, err := opts.dlyap.Solve(g, w)
	stats.Add(TimerLinearSolve, time.Since(t0))
	if err != nil {
		return nil, &LinearSolverError{Strategy: st.Name(), Err: fmt.Errorf("condensed equation: %w", err)}
	}
	matrix.Symmetrize(p0)

	// recover the rest of the period by forward propagation
	out := make([]*mat.Dense, k)
	out[0] = p0
	for idx := 1; idx < k; idx++ {
		out[idx] = matrix.Congruence(prob.A[idx-1], out[idx-1])
		out[idx].Add(out[idx], prob.V[idx-1])
		matrix.Symmetrize(out[idx])
	}
	return out, nil
}
