package solver

import (
	"fmt"
	"time"

	"github.com/control-num/dple/internal/constants"
	"github.com/control-num/dple/pkg/matrix"
	"github.com/control-num/dple/pkg/psd"
	"gonum.org/v1/gonum/mat"
)

// schurStrategy is the numerically robust general-purpose solve. It
// computes the periodic real Schur form of the cycle, transforms the
// covariances into the Schur basis, solves the recurrence there by
// block back-substitution, and transforms back. It never forms the
// cyclic product, so it does not require a positive-definite problem or
// a stable conditioning of the product.
type schurStrategy struct{}

func (st *schurStrategy) Name() string { return "schur" }

func (st *schurStrategy) Solve(prob *Problem, opts *solveOptions, stats *Stats) ([]*mat.Dense, error) {
	k := len(prob.A)
	n, _ := prob.A[0].Dims()

	t0 := time.Now()
	dec, err := psd.Decompose(prob.A, psd.Options{
		MaxSweeps: int(opts.parms.Get("maxSweeps", constants.DefaultSchurMaxSweep)),
		NumZero:   opts.psdNumZero,
	})
	stats.Add(TimerPSD, time.Since(t0))
	if err != nil {
		return nil, &DecompositionError{Strategy: st.Name(), Err: err}
	}

	// covariances in the Schur basis: V'_k = Q_{k+1}^T V_k Q_{k+1}
	vp := make([]*mat.Dense, k)
	for i := 0; i < k; i++ {
		qn := dec.Q[(i+1)%k]
		var tmp mat.Dense
		tmp.Mul(qn.T(), prob.V[i])
		vp[i] = mat.NewDense(n, n, nil)
		vp[i].Mul(&tmp, qn)
	}

	pp, err := st.backSubstitute(dec, vp, opts, stats)
	if err != nil {
		return nil, err
	}

	// back to the original basis: P_k = Q_k P'_k Q_k^T
	out := make([]*mat.Dense, k)
	for i := 0; i < k; i++ {
		var tmp mat.Dense
		tmp.Mul(dec.Q[i], pp[i])
		out[i] = mat.NewDense(n, n, nil)
		out[i].Mul(&tmp, dec.Q[i].T())
		matrix.Symmetrize(out[i])
	}
	return out, nil
}

// backSubstitute solves P'_{k+1} = T_k P'_k T_k^T + V'_k in the
// quasi-triangular basis. The solution is built block position by block
// position, bottom-right first: with T_k block upper triangular, the
// equation for block (i,j) couples only across the cyclic index once the
// blocks below and to the right are known, leaving a small cyclic linear
// system closed by x_0 = (I - Phi)^{-1} d with Phi the product of the
// per-index Kronecker factors (at most 4x4).
func (st *schurStrategy) backSubstitute(dec *psd.Decomposition, vp []*mat.Dense, opts *solveOptions, stats *Stats) ([]*mat.Dense, error) {
	k, n := dec.K, dec.N
	blocks := dec.Blocks()
	nb := len(blocks)
	offsets := make([]int, nb)
	for b := 1; b < nb; b++ {
		offsets[b] = offsets[b-1] + blocks[b-1]
	}

	pp := make([]*mat.Dense, k)
	for i := 0; i < k; i++ {
		pp[i] = mat.NewDense(n, n, nil)
	}

	for bj := nb - 1; bj >= 0; bj-- {
		for bi := bj; bi >= 0; bi-- {
			oi, szi := offsets[bi], blocks[bi]
			oj, szj := offsets[bj], blocks[bj]
			m := szi * szj

			// per-index Kronecker factors and right-hand sides
			factors := make([]*mat.Dense, k)
			rhs := make([]*mat.VecDense, k)
			for idx := 0; idx < k; idx++ {
				t := dec.T[idx]
				tii := mat.DenseCopyOf(t.Slice(oi, oi+szi, oi, oi+szi))
				tjj := mat.DenseCopyOf(t.Slice(oj, oj+szj, oj, oj+szj))
				factors[idx] = matrix.Kron(tjj, tii)

				// contributions of already-solved blocks: the congruence
				// over the partial P' with the (i,j) and (j,i) blocks
				// still zero picks up exactly the known terms
				ti := t.Slice(oi, oi+szi, 0, n)
				tj := t.Slice(oj, oj+szj, 0, n)
				var left mat.Dense
				left.Mul(ti, pp[idx])
				c := mat.NewDense(szi, szj, nil)
				c.Mul(&left, tj.T())
				c.Add(c, vp[idx].Slice(oi, oi+szi, oj, oj+szj))
				rhs[idx] = matrix.Vec(c)
			}

			// cyclic closure: d accumulates the propagated right-hand
			// side, phi the cyclic product of the Kronecker factors
			phi := mat.NewDense(m, m, nil)
			for i := 0; i < m; i++ {
				phi.Set(i, i, 1)
			}
			d := mat.NewVecDense(m, nil)
			for idx := 0; idx < k; idx++ {
				var dNext mat.VecDense
				dNext.MulVec(factors[idx], d)
				dNext.AddVec(&dNext, rhs[idx])
				d.CopyVec(&dNext)

				var phiNext mat.Dense
				phiNext.Mul(factors[idx], phi)
				phi.Copy(&phiNext)
			}

			lhs := mat.NewDense(m, m, nil)
			for i := 0; i < m; i++ {
				for j := 0; j < m; j++ {
					v := -phi.At(i, j)
					if i == j {
						v++
					}
					lhs.Set(i, j, v)
				}
			}
			b := mat.NewDense(m, 1, nil)
			b.SetCol(0, d.RawVector().Data)

			t0 := time.Now()
			x, err := opts.lin.Solve(lhs, b)
			stats.Add(TimerLinearSolve, time.Since(t0))
			if err != nil {
				return nil, &LinearSolverError{
					Strategy: st.Name(),
					Err:      fmt.Errorf("cyclic closure at block (%d,%d): %w", bi, bj, err),
				}
			}

			// propagate around the cycle and write the blocks back
			xk := mat.NewVecDense(m, mat.Col(nil, 0, x))
			for idx := 0; idx < k; idx++ {
				blk := matrix.Unvec(xk, szi, szj)
				dst := pp[idx].Slice(oi, oi+szi, oj, oj+szj).(*mat.Dense)
				dst.Copy(blk)
				if bi != bj {
					mirror := pp[idx].Slice(oj, oj+szj, oi, oi+szi).(*mat.Dense)
					mirror.Copy(blk.T())
				}

				if idx < k-1 {
					var xNext mat.VecDense
					xNext.MulVec(factors[idx], xk)
					xNext.AddVec(&xNext, rhs[idx])
					xk.CopyVec(&xNext)
				}
			}
		}
	}

	for i := 0; i < k; i++ {
		matrix.Symmetrize(pp[i])
	}
	return pp, nil
}
