package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestFloatEqual(t *testing.T) {
	tests := []struct {
		name    string
		a, b    float64
		epsilon float64
		want    bool
	}{
		{name: "exactly equal", a: 1.5, b: 1.5, epsilon: 1e-9, want: true},
		{name: "within tolerance", a: 1.0, b: 1.0 + 1e-12, epsilon: 1e-9, want: true},
		{name: "outside tolerance", a: 1.0, b: 1.001, epsilon: 1e-9, want: false},
		{name: "zero against drift", a: 0.0, b: 1e-12, epsilon: 1e-9, want: true},
		{name: "large magnitudes", a: 1e12, b: 1e12 + 1, epsilon: 1e-9, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FloatEqual(tt.a, tt.b, tt.epsilon); got != tt.want {
				t.Errorf("FloatEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsSymmetric(t *testing.T) {
	sym := mat.NewDense(2, 2, []float64{1, 2, 2, 3})
	asym := mat.NewDense(2, 2, []float64{1, 2, 2.1, 3})
	rect := mat.NewDense(2, 3, nil)

	assert.True(t, IsSymmetric(sym, DefaultEpsilon))
	assert.False(t, IsSymmetric(asym, DefaultEpsilon))
	assert.False(t, IsSymmetric(rect, DefaultEpsilon))
}

func TestSymmetrize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 2.2, 1.8, 3})
	Symmetrize(m)
	assert.InDelta(t, 2.0, m.At(0, 1), 1e-15)
	assert.InDelta(t, 2.0, m.At(1, 0), 1e-15)
}

func TestCongruence(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0.5})
	p := mat.NewDense(2, 2, []float64{4, 0, 0, 4})
	got := Congruence(a, p)
	assert.InDelta(t, 1.0, got.At(0, 0), 1e-15)
	assert.InDelta(t, 1.0, got.At(1, 1), 1e-15)
	assert.InDelta(t, 0.0, got.At(0, 1), 1e-15)
}

func TestSpectralRadius(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		0.5, 1, 0,
		0, -0.9, 2,
		0, 0, 0.2,
	})
	rho, err := SpectralRadius(m)
	assert.NoError(t, err)
	assert.InDelta(t, 0.9, rho, 1e-12)
}

func TestCholeskyFactor(t *testing.T) {
	p := mat.NewDense(2, 2, []float64{4, 2, 2, 3})
	l, err := CholeskyFactor(p, 0)
	assert.NoError(t, err)

	var back mat.Dense
	back.Mul(l, l.T())
	assert.InDelta(t, 0, distance(&back, p), 1e-12)

	indef := mat.NewDense(2, 2, []float64{1, 0, 0, -1})
	_, err = CholeskyFactor(indef, 1e-12)
	assert.Error(t, err)
}

func TestVecKronIdentity(t *testing.T) {
	// vec(A X B^T) must equal (B ⊗ A) vec(X)
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{0.5, -1, 2, 0.25})
	x := mat.NewDense(2, 2, []float64{2, -1, 0, 3})

	var ax mat.Dense
	ax.Mul(a, x)
	var axb mat.Dense
	axb.Mul(&ax, b.T())
	want := Vec(&axb)

	var got mat.VecDense
	got.MulVec(Kron(b, a), Vec(x))

	for i := 0; i < 4; i++ {
		assert.InDelta(t, want.AtVec(i), got.AtVec(i), 1e-12)
	}
}

func TestVecUnvecRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	back := Unvec(Vec(m), 2, 3)
	assert.InDelta(t, 0, distance(back, m), 1e-15)
}

func TestBlockDiagExtract(t *testing.T) {
	b1 := mat.NewDense(1, 1, []float64{2})
	b2 := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	full := BlockDiag([]*mat.Dense{b1, b2})

	r, c := full.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, full.At(0, 2))

	blocks, err := ExtractBlocks(full, []int{1, 2})
	assert.NoError(t, err)
	assert.InDelta(t, 0, distance(blocks[0], b1), 1e-15)
	assert.InDelta(t, 0, distance(blocks[1], b2), 1e-15)

	_, err = ExtractBlocks(full, []int{1, 1})
	assert.Error(t, err)
}

// distance is the Frobenius norm of a - b.
func distance(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return mat.Norm(&diff, 2)
}
