package psd

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Blocks returns the diagonal block partition of the quasi-triangular
// factor: a slice of block sizes (1 or 2) in top-down order.
func (d *Decomposition) Blocks() []int {
	h := d.T[d.K-1]
	var blocks []int
	for i := 0; i < d.N; {
		if i+1 < d.N && h.At(i+1, i) != 0 {
			blocks = append(blocks, 2)
			i += 2
		} else {
			blocks = append(blocks, 1)
			i++
		}
	}
	return blocks
}

// FloquetMultipliers returns the eigenvalues of the cyclic product
// A_{K-1}...A_0, read off the diagonal blocks of the periodic Schur form.
// Magnitudes below the NumZero option are snapped to exact zero, guarding
// against spurious nonzero multipliers in structurally singular cycles.
func (d *Decomposition) FloquetMultipliers() []complex128 {
	var out []complex128
	i := 0
	for _, b := range d.Blocks() {
		if b == 1 {
			lambda := 1.0
			for k := 0; k < d.K; k++ {
				v := d.T[k].At(i, i)
				if math.Abs(v) < d.numZero {
					v = 0
				}
				lambda *= v
			}
			out = append(out, complex(lambda, 0))
		} else {
			blk := d.blockProduct(i)
			l1, l2 := eig2(blk)
			out = append(out, l1, l2)
		}
		i += b
	}
	return out
}

// SpectralRadius returns the largest Floquet multiplier modulus.
func (d *Decomposition) SpectralRadius() float64 {
	rho := 0.0
	for _, l := range d.FloquetMultipliers() {
		if r := cmplx.Abs(l); r > rho {
			rho = r
		}
	}
	return rho
}

// blockProduct forms the 2x2 cyclic product of the diagonal blocks at
// offset i, in the order T_{K-1}...T_0.
func (d *Decomposition) blockProduct(i int) *mat.Dense {
	prod := identity2()
	for k := 0; k < d.K; k++ {
		t := d.T[k]
		blk := mat.NewDense(2, 2, []float64{
			t.At(i, i), t.At(i, i+1),
			t.At(i+1, i), t.At(i+1, i+1),
		})
		var tmp mat.Dense
		tmp.Mul(blk, prod)
		prod.Copy(&tmp)
	}
	return prod
}

// eig2 returns the eigenvalue pair of a 2x2 matrix.
func eig2(b *mat.Dense) (complex128, complex128) {
	tr := b.At(0, 0) + b.At(1, 1)
	det := b.At(0, 0)*b.At(1, 1) - b.At(0, 1)*b.At(1, 0)
	disc := tr*tr/4 - det
	if disc >= 0 {
		sq := math.Sqrt(disc)
		return complex(tr/2+sq, 0), complex(tr/2-sq, 0)
	}
	sq := math.Sqrt(-disc)
	return complex(tr/2, sq), complex(tr/2, -sq)
}
