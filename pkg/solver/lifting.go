package solver

import (
	"fmt"
	"time"

	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// liftingStrategy stacks the K coupled n x n equations into a single
// Kn x Kn discrete Lyapunov equation: the lifted operator carries the
// A_k as cyclic-shift blocks and the block-diagonal solution holds every
// P_k at once. The dense lifted solve costs O(K^3 n^3) and worse inside
// the Lyapunov solver, making this the most expensive strategy; it is
// meant for small K and as a debugging cross-check against the others.
//
// The form option chooses between the two equivalent block arrangements
// (downshift "A" vs upshift "B"); both yield identical P_k up to
// floating-point error.
type liftingStrategy struct{}

func (st *liftingStrategy) Name() string { return "lifting" }

func (st *liftingStrategy) Solve(prob *Problem, opts *solveOptions, stats *Stats) ([]*mat.Dense, error) {
	k := len(prob.A)
	n, _ := prob.A[0].Dims()
	kn := k * n

	lifted := mat.NewDense(kn, kn, nil)
	noise := mat.NewDense(kn, kn, nil)

	// row block r of the lifted operator holds A at the column block it
	// maps from; its diagonal noise block is the V driving that row's P
	for idx := 0; idx < k; idx++ {
		var row, col, seq int
		switch opts.form {
		case config.FormA:
			// block (k+1 mod K, k) = A_k; diagonal j holds P_j, V_{j-1}
			row, col, seq = (idx+1)%k, idx, idx
		case config.FormB:
			// reversed ordering: diagonal j holds P_{(K-j) mod K}, the
			// operator blocks sit on the superdiagonal cycle
			row, col, seq = idx, (idx+1)%k, (k-idx-1)%k
		}
		lifted.Slice(row*n, row*n+n, col*n, col*n+n).(*mat.Dense).Copy(prob.A[seq])
		noise.Slice(row*n, row*n+n, row*n, row*n+n).(*mat.Dense).Copy(prob.V[seq])
	}

	t0 := time.Now()
	sol, err := opts.dlyap.Solve(lifted, noise)
	stats.Add(TimerLinearSolve, time.Since(t0))
	if err != nil {
		return nil, &LinearSolverError{Strategy: st.Name(), Err: fmt.Errorf("lifted equation: %w", err)}
	}

	// un-stack the block-diagonal solution
	out := make([]*mat.Dense, k)
	for idx := 0; idx < k; idx++ {
		var diag int
		switch opts.form {
		case config.FormA:
			diag = idx
		case config.FormB:
			diag = (k - idx) % k
		}
		out[idx] = mat.DenseCopyOf(sol.Slice(diag*n, diag*n+n, diag*n, diag*n+n))
		matrix.Symmetrize(out[idx])
	}
	return out, nil
}
