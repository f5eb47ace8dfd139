// Package psd computes the periodic real Schur decomposition of a cyclic
// matrix product: orthogonal Q_k and factors T_k = Q_{k+1 mod K}^T A_k Q_k
// with T_{K-1} upper quasi-triangular and all other T_k upper triangular.
// The eigenvalues of the product A_{K-1}...A_0 (the Floquet multipliers)
// are read off the diagonal blocks without ever forming the product.
//
// The reduction follows the classic two-stage scheme: a periodic
// Hessenberg-triangular reduction by plane rotations chased around the
// cycle, then an implicit single-shift periodic QR iteration with
// deflation of 2x2 blocks holding complex-conjugate multiplier pairs.
package psd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const machEps = 2.220446049250313e-16

// Options control the decomposition.
type Options struct {
	// MaxSweeps bounds the QR sweeps spent per deflated eigenvalue.
	// Zero means the default budget.
	MaxSweeps int
	// NumZero is the magnitude below which a computed quantity is
	// treated as exactly zero when forming Floquet multipliers.
	NumZero float64
}

// DefaultMaxSweeps is the per-eigenvalue sweep budget.
const DefaultMaxSweeps = 50

// Decomposition holds the periodic Schur form of a matrix cycle.
type Decomposition struct {
	K int // period
	N int // dimension

	// Q[k] are orthogonal, Q[(k+1)%K]^T * A[k] * Q[k] = T[k].
	Q []*mat.Dense
	// T[K-1] is upper quasi-triangular, T[0..K-2] upper triangular.
	T []*mat.Dense

	numZero float64
}

// Decompose computes the periodic real Schur form of the cycle A_0..A_{K-1}.
// All matrices must be square with one shared dimension. The iteration
// failing to converge within the sweep budget is reported as an error.
func Decompose(a []*mat.Dense, opts Options) (*Decomposition, error) {
	k := len(a)
	if k == 0 {
		return nil, fmt.Errorf("psd: empty matrix cycle")
	}
	n, c := a[0].Dims()
	if n != c {
		return nil, fmt.Errorf("psd: matrix 0 is %dx%d, want square", n, c)
	}
	for i, m := range a {
		r, cc := m.Dims()
		if r != n || cc != n {
			return nil, fmt.Errorf("psd: matrix %d is %dx%d, want %dx%d", i, r, cc, n, n)
		}
	}

	maxSweeps := opts.MaxSweeps
	if maxSweeps <= 0 {
		maxSweeps = DefaultMaxSweeps
	}

	d := &Decomposition{
		K:       k,
		N:       n,
		Q:       make([]*mat.Dense, k),
		T:       make([]*mat.Dense, k),
		numZero: opts.NumZero,
	}

	d.reduce(a)
	if err := d.iterate(maxSweeps); err != nil {
		return nil, err
	}
	return d, nil
}

// reduce brings the cycle to periodic Hessenberg-triangular form:
// T_0..T_{K-2} upper triangular and T_{K-1} upper Hessenberg.
func (d *Decomposition) reduce(a []*mat.Dense) {
	k, n := d.K, d.N

	// Q_0 = I, then triangularize the leading K-1 factors by a QR cascade:
	// A_k Q_k = Q_{k+1} R_k, so T_k = Q_{k+1}^T A_k Q_k = R_k.
	d.Q[0] = identity(n)
	m := mat.DenseCopyOf(a[0])
	for i := 0; i < k-1; i++ {
		var qr mat.QR
		qr.Factorize(m)
		q := mat.NewDense(n, n, nil)
		r := mat.NewDense(n, n, nil)
		qr.QTo(q)
		qr.RTo(r)
		d.Q[i+1] = q
		d.T[i] = r
		if i+1 < k-1 {
			m = mat.NewDense(n, n, nil)
			m.Mul(a[i+1], q)
		}
	}

	// Close the cycle: with Q_K = Q_0 = I so far, the last factor is full.
	h := mat.NewDense(n, n, nil)
	if k > 1 {
		h.Mul(a[k-1], d.Q[k-1])
	} else {
		h.Copy(a[0])
	}
	d.T[k-1] = h

	// Reduce the closing factor to Hessenberg form, chasing each rotation
	// around the cycle to keep the other factors triangular.
	for j := 0; j < n-2; j++ {
		for i := n - 1; i >= j+2; i-- {
			if h.At(i, j) == 0 {
				continue
			}
			g := makeGivens(h.At(i-1, j), h.At(i, j))
			d.chase(g, i-1)
			h.Set(i, j, 0)
		}
	}
}

// chase applies a left rotation on rows (i, i+1) of the Hessenberg factor
// and propagates it around the cycle, restoring triangularity of each
// T_k on the way, until it returns to the Hessenberg factor as a right
// rotation on columns (i, i+1).
func (d *Decomposition) chase(g givens, i int) {
	k, n := d.K, d.N
	h := d.T[k-1]

	g.applyLeft(h, i, i+1, 0, n)
	g.applyRight(d.Q[0], i, i+1, 0, n)

	cur := g
	for idx := 0; idx < k-1; idx++ {
		t := d.T[idx]
		cur.applyRight(t, i, i+1, 0, n)

		next := makeGivens(t.At(i, i), t.At(i+1, i))
		next.applyLeft(t, i, i+1, 0, n)
		t.Set(i+1, i, 0)
		next.applyRight(d.Q[idx+1], i, i+1, 0, n)
		cur = next
	}
	cur.applyRight(h, i, i+1, 0, n)
}

// iterate runs the implicit single-shift periodic QR iteration on the
// Hessenberg factor until the window collapses to 1x1 and 2x2 blocks.
func (d *Decomposition) iterate(maxSweeps int) error {
	n := d.N
	h := d.T[d.K-1]
	if n < 2 {
		return nil
	}

	hi := n - 1
	sweeps := 0
	for hi > 0 {
		lo := d.deflate(hi)
		if lo == hi {
			// single multiplier converged
			hi--
			sweeps = 0
			continue
		}
		if lo == hi-1 {
			// 2x2 window: a complex pair stays as a quasi-triangular
			// block, a real pair keeps iterating with an exact shift
			b := d.productBlock(hi)
			if discriminant(b) < 0 {
				hi -= 2
				sweeps = 0
				continue
			}
		}

		if sweeps >= maxSweeps {
			return fmt.Errorf("periodic QR iteration: no convergence in %d sweeps at index %d", maxSweeps, hi)
		}
		sigma := d.shift(hi, sweeps)
		d.sweep(lo, hi, sigma)
		sweeps++
	}

	// clear converged subdiagonal entries outside the 2x2 blocks
	for i := 1; i < n; i++ {
		if d.negligible(i) {
			h.Set(i, i-1, 0)
		}
	}
	return nil
}

// deflate zeroes negligible subdiagonal entries at the bottom of the
// active window and returns the start of the unreduced window ending at hi.
func (d *Decomposition) deflate(hi int) int {
	h := d.T[d.K-1]
	lo := hi
	for lo > 0 {
		if d.negligible(lo) {
			h.Set(lo, lo-1, 0)
			break
		}
		lo--
	}
	return lo
}

// negligible reports whether the subdiagonal entry H[i][i-1] is below
// round-off relative to its diagonal neighbors.
func (d *Decomposition) negligible(i int) bool {
	h := d.T[d.K-1]
	s := math.Abs(h.At(i-1, i-1)) + math.Abs(h.At(i, i))
	if s == 0 {
		s = mat.Norm(h, 2)
	}
	return math.Abs(h.At(i, i-1)) <= machEps*s
}

// productBlock returns the trailing 2x2 block (rows hi-1, hi) of the
// cyclic product restricted to the active window. Exact for the
// triangular factors; the Hessenberg coupling above the window start is
// deflated, so the block is accurate enough for shifts and pair tests.
func (d *Decomposition) productBlock(hi int) *mat.Dense {
	s := hi - 1
	r2 := identity2()
	for k := 0; k < d.K-1; k++ {
		t := d.T[k]
		blk := mat.NewDense(2, 2, []float64{
			t.At(s, s), t.At(s, s+1),
			0, t.At(s+1, s+1),
		})
		var tmp mat.Dense
		tmp.Mul(blk, r2)
		r2.Copy(&tmp)
	}
	h := d.T[d.K-1]
	hb := mat.NewDense(2, 2, []float64{
		h.At(s, s), h.At(s, s+1),
		h.At(s+1, s), h.At(s+1, s+1),
	})
	out := mat.NewDense(2, 2, nil)
	out.Mul(hb, r2)
	return out
}

// shift picks a real shift for the next sweep from the trailing 2x2 of
// the window product, with an exceptional shift when sweeps stagnate.
func (d *Decomposition) shift(hi, sweeps int) float64 {
	b := d.productBlock(hi)
	if sweeps > 0 && sweeps%10 == 0 {
		// exceptional shift, LAPACK style: derived from the
		// subdiagonal magnitudes to break symmetric stagnation
		h := d.T[d.K-1]
		return 0.75*math.Abs(b.At(1, 0)) + math.Abs(h.At(hi, hi-1))
	}

	tr := b.At(0, 0) + b.At(1, 1)
	det := b.At(0, 0)*b.At(1, 1) - b.At(0, 1)*b.At(1, 0)
	disc := tr*tr/4 - det
	if disc < 0 {
		// complex pair: aim at its real part
		return tr / 2
	}
	// Wilkinson: the real eigenvalue closer to the corner entry
	sq := math.Sqrt(disc)
	l1 := tr/2 + sq
	l2 := tr/2 - sq
	if math.Abs(l1-b.At(1, 1)) < math.Abs(l2-b.At(1, 1)) {
		return l1
	}
	return l2
}

// sweep performs one implicit shifted QR step on the window [lo, hi],
// bulge-chasing through the whole cycle.
func (d *Decomposition) sweep(lo, hi int, sigma float64) {
	h := d.T[d.K-1]

	// first column of the shifted window product: the triangular factors
	// contribute only their (lo,lo) product to rows lo and lo+1
	rho := 1.0
	for k := 0; k < d.K-1; k++ {
		rho *= d.T[k].At(lo, lo)
	}
	x := rho*h.At(lo, lo) - sigma
	z := rho * h.At(lo+1, lo)
	if z == 0 {
		// a zero diagonal in a triangular factor kills the product
		// column; fall back to an unshifted step on the Hessenberg
		// factor alone to keep the iteration moving
		x = h.At(lo, lo)
		z = h.At(lo+1, lo)
	}
	d.chase(makeGivens(x, z), lo)

	// chase the bulge down and off the window
	for i := lo + 1; i < hi; i++ {
		d.chase(makeGivens(h.At(i, i-1), h.At(i+1, i-1)), i)
		h.Set(i+1, i-1, 0)
	}
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func identity2() *mat.Dense {
	return mat.NewDense(2, 2, []float64{1, 0, 0, 1})
}

// discriminant of the characteristic polynomial of a 2x2 block; negative
// means a complex-conjugate eigenvalue pair.
func discriminant(b *mat.Dense) float64 {
	tr := b.At(0, 0) + b.At(1, 1)
	det := b.At(0, 0)*b.At(1, 1) - b.At(0, 1)*b.At(1, 0)
	return tr*tr/4 - det
}
