package solver

import (
	"errors"
	"testing"

	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/linsolve"
	"github.com/control-num/dple/pkg/matrix"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var strategyNames = []string{"schur", "condensing", "lifting", "simple"}

// testOptions returns defaulted options with the given strategy.
func testOptions(strategy string) config.SolverOptions {
	opts := config.DefaultSolverOptions()
	opts.Strategy = strategy
	return opts
}

// testProblem is a generic stable 3-periodic problem in dimension 3.
func testProblem() *Problem {
	return &Problem{
		A: []*mat.Dense{
			mat.NewDense(3, 3, []float64{
				0.6, 0.1, 0.0,
				0.2, 0.5, 0.1,
				0.0, 0.2, 0.4,
			}),
			mat.NewDense(3, 3, []float64{
				0.3, -0.2, 0.1,
				0.1, 0.4, 0.0,
				-0.1, 0.0, 0.5,
			}),
			mat.NewDense(3, 3, []float64{
				0.5, 0.0, 0.1,
				0.2, 0.3, 0.0,
				0.0, -0.1, 0.6,
			}),
		},
		V: []*mat.Dense{
			mat.NewDense(3, 3, []float64{
				2.0, 0.5, 0.0,
				0.5, 1.0, 0.2,
				0.0, 0.2, 1.5,
			}),
			mat.NewDense(3, 3, []float64{
				1.0, 0.0, 0.3,
				0.0, 2.0, 0.0,
				0.3, 0.0, 1.0,
			}),
			mat.NewDense(3, 3, []float64{
				1.5, 0.2, 0.0,
				0.2, 1.0, 0.4,
				0.0, 0.4, 2.0,
			}),
		},
	}
}

// residual returns the largest norm of P_{k+1} - A_k P_k A_k^T - V_k
// over the cycle.
func residual(prob *Problem, p []*mat.Dense) float64 {
	k := len(prob.A)
	worst := 0.0
	for i := 0; i < k; i++ {
		prop := matrix.Congruence(prob.A[i], p[i])
		prop.Add(prop, prob.V[i])
		prop.Sub(prop, p[(i+1)%k])
		if r := mat.Norm(prop, 2); r > worst {
			worst = r
		}
	}
	return worst
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.SolverOptions)
		asCheck func(error) bool
	}{
		{
			name:   "unknown strategy",
			mutate: func(o *config.SolverOptions) { o.Strategy = "newton" },
			asCheck: func(err error) bool {
				var e *UnknownStrategyError
				return errors.As(err, &e) && e.Name == "newton"
			},
		},
		{
			name:   "unknown lifting form",
			mutate: func(o *config.SolverOptions) { o.Form = "C" },
		},
		{
			name:   "unknown linear solver",
			mutate: func(o *config.SolverOptions) { o.LinearSolver = "gaussian" },
		},
		{
			name:   "unknown lyapunov solver",
			mutate: func(o *config.SolverOptions) { o.LyapunovSolver = "hammarling" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("schur")
			tt.mutate(&opts)
			_, err := New(opts)
			if err == nil {
				t.Errorf("New() expected an error")
				return
			}
			if tt.asCheck != nil && !tt.asCheck(err) {
				t.Errorf("New() error = %v, wrong type", err)
			}
		})
	}
}

func TestSolveScalar(t *testing.T) {
	// x_{k+1} = 0.5 x_k + w, one period: p = 0.25 p + 1, so p = 4/3
	prob := &Problem{
		A: []*mat.Dense{mat.NewDense(1, 1, []float64{0.5})},
		V: []*mat.Dense{mat.NewDense(1, 1, []float64{1})},
	}
	for _, name := range strategyNames {
		t.Run(name, func(t *testing.T) {
			s, err := New(testOptions(name))
			assert.NoError(t, err)
			sol, err := s.Solve(prob)
			assert.NoError(t, err)
			assert.Equal(t, 1, len(sol.P))
			assert.InDelta(t, 4.0/3.0, sol.P[0].At(0, 0), 1e-10)
		})
	}
}

func TestSolveDiagonal(t *testing.T) {
	// two identical diagonal phases give P_k = (4/3) I for both k
	eye := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	half := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0.5})
	prob := &Problem{
		A: []*mat.Dense{half, half},
		V: []*mat.Dense{eye, eye},
	}
	for _, name := range strategyNames {
		t.Run(name, func(t *testing.T) {
			s, err := New(testOptions(name))
			assert.NoError(t, err)
			sol, err := s.Solve(prob)
			assert.NoError(t, err)
			for k := 0; k < 2; k++ {
				assert.InDelta(t, 4.0/3.0, sol.P[k].At(0, 0), 1e-10)
				assert.InDelta(t, 4.0/3.0, sol.P[k].At(1, 1), 1e-10)
				assert.InDelta(t, 0.0, sol.P[k].At(0, 1), 1e-10)
			}
		})
	}
}

func TestSolveResidual(t *testing.T) {
	prob := testProblem()
	for _, name := range strategyNames {
		t.Run(name, func(t *testing.T) {
			s, err := New(testOptions(name))
			assert.NoError(t, err)
			sol, err := s.Solve(prob)
			assert.NoError(t, err)

			assert.Less(t, residual(prob, sol.P), 1e-8)
			for k := range sol.P {
				assert.True(t, matrix.IsSymmetric(sol.P[k], 1e-9))
			}
		})
	}
}

func TestValidate(t *testing.T) {
	good := testProblem()
	asymV := testProblem()
	asymV.V[1].Set(0, 1, 99)

	tests := []struct {
		name string
		prob *Problem
		opts config.SolverOptions
	}{
		{name: "nil problem", prob: nil, opts: testOptions("schur")},
		{name: "empty cycle", prob: &Problem{}, opts: testOptions("schur")},
		{
			name: "cycle length mismatch",
			prob: &Problem{A: good.A, V: good.V[:2]},
			opts: testOptions("schur"),
		},
		{
			name: "non-square transition",
			prob: &Problem{
				A: []*mat.Dense{mat.NewDense(2, 3, nil)},
				V: []*mat.Dense{mat.NewDense(2, 2, nil)},
			},
			opts: testOptions("schur"),
		},
		{
			name: "covariance dimension mismatch",
			prob: &Problem{
				A: []*mat.Dense{mat.NewDense(2, 2, nil)},
				V: []*mat.Dense{mat.NewDense(3, 3, nil)},
			},
			opts: testOptions("schur"),
		},
		{
			name: "asymmetric covariance",
			prob: asymV,
			opts: testOptions("schur"),
		},
		{
			name: "missing block sizes",
			prob: good,
			opts: func() config.SolverOptions {
				o := testOptions("schur")
				o.ConstDim = false
				return o
			}(),
		},
		{
			name: "block sizes do not sum to dimension",
			prob: &Problem{A: good.A, V: good.V, BlockSizes: []int{1, 1}},
			opts: func() config.SolverOptions {
				o := testOptions("schur")
				o.ConstDim = false
				return o
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.opts)
			assert.NoError(t, err)

			// a counting solver proves validation precedes numerics
			lin := &countingLinear{}
			s.SetLinearSolver(lin)

			_, err = s.Solve(tt.prob)
			var shapeErr *ShapeError
			if !errors.As(err, &shapeErr) {
				t.Errorf("Solve() error = %v, want ShapeError", err)
			}
			assert.Zero(t, lin.calls)
		})
	}
}

func TestStabilityCheck(t *testing.T) {
	// spectral radius 1.2: the equation is still solvable, admissibility
	// is a separate, optional gate
	prob := &Problem{
		A: []*mat.Dense{mat.NewDense(2, 2, []float64{1.2, 0, 0, 1.2})},
		V: []*mat.Dense{mat.NewDense(2, 2, []float64{1, 0, 0, 1})},
	}

	for _, name := range []string{"schur", "simple"} {
		t.Run(name+" reported", func(t *testing.T) {
			opts := testOptions(name)
			opts.ErrorUnstable = true
			s, err := New(opts)
			assert.NoError(t, err)

			_, err = s.Solve(prob)
			var instErr *InstabilityError
			if !errors.As(err, &instErr) {
				t.Fatalf("Solve() error = %v, want InstabilityError", err)
			}
			assert.InDelta(t, 1.2, instErr.SpectralRadius, 1e-10)
		})

		t.Run(name+" tolerated", func(t *testing.T) {
			s, err := New(testOptions(name))
			assert.NoError(t, err)
			sol, err := s.Solve(prob)
			assert.NoError(t, err)
			// p = 1.44 p + 1 has the (indefinite) solution p = -1/0.44
			assert.InDelta(t, -1.0/0.44, sol.P[0].At(0, 0), 1e-10)
		})
	}
}

func TestSchurSweepBudget(t *testing.T) {
	// a cyclic permutation stalls the periodic QR iteration; the sweep
	// budget parameter must surface a DecompositionError
	prob := &Problem{
		A: []*mat.Dense{mat.NewDense(4, 4, []float64{
			0, 0, 0, 1,
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
		})},
		V: []*mat.Dense{mat.NewDense(4, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})},
	}

	opts := testOptions("schur")
	opts.SolverParms = map[string]float64{"maxSweeps": 3}
	s, err := New(opts)
	assert.NoError(t, err)

	_, err = s.Solve(prob)
	var decErr *DecompositionError
	if !errors.As(err, &decErr) {
		t.Fatalf("Solve() error = %v, want DecompositionError", err)
	}
	assert.Equal(t, "schur", decErr.Strategy)
}

func TestSolvePosDef(t *testing.T) {
	prob := testProblem()

	plain, err := New(testOptions("schur"))
	assert.NoError(t, err)
	ref, err := plain.Solve(prob)
	assert.NoError(t, err)

	opts := testOptions("schur")
	opts.PosDef = true
	s, err := New(opts)
	assert.NoError(t, err)
	sol, err := s.Solve(prob)
	assert.NoError(t, err)
	assert.True(t, sol.PosDef)

	for k := range sol.P {
		l := sol.P[k]
		// lower triangular factor with L * L^T recovering P_k
		for i := 0; i < 3; i++ {
			for j := i + 1; j < 3; j++ {
				assert.Zero(t, l.At(i, j))
			}
		}
		var back mat.Dense
		back.Mul(l, l.T())
		back.Sub(&back, ref.P[k])
		assert.InDelta(t, 0, mat.Norm(&back, 2), 1e-8)
	}
}

func TestSolveBlockDiagonal(t *testing.T) {
	// a block-diagonal cycle solved blockwise must match the dense solve
	dense := testProblem()
	sizes := []int{1, 2}

	blockify := func(ms []*mat.Dense) []*mat.Dense {
		out := make([]*mat.Dense, len(ms))
		for i, m := range ms {
			blocks, err := matrix.ExtractBlocks(m, sizes)
			if err != nil {
				t.Fatal(err)
			}
			out[i] = matrix.BlockDiag(blocks)
		}
		return out
	}
	prob := &Problem{A: blockify(dense.A), V: blockify(dense.V), BlockSizes: sizes}

	opts := testOptions("schur")
	opts.ConstDim = false
	s, err := New(opts)
	assert.NoError(t, err)
	sol, err := s.Solve(prob)
	assert.NoError(t, err)

	ref, err := New(testOptions("schur"))
	assert.NoError(t, err)
	refSol, err := ref.Solve(&Problem{A: prob.A, V: prob.V})
	assert.NoError(t, err)

	for k := range sol.P {
		var diff mat.Dense
		diff.Sub(sol.P[k], refSol.P[k])
		assert.InDelta(t, 0, mat.Norm(&diff, 2), 1e-8)

		// off-block couplings stay identically zero
		assert.Zero(t, sol.P[k].At(0, 1))
		assert.Zero(t, sol.P[k].At(0, 2))
	}
}

func TestSolveStats(t *testing.T) {
	prob := testProblem()

	s, err := New(testOptions("schur"))
	assert.NoError(t, err)
	sol, err := s.Solve(prob)
	assert.NoError(t, err)

	timers := sol.Stats.Timers()
	assert.Contains(t, timers, TimerTotal)
	assert.Contains(t, timers, TimerPSD)
	assert.Contains(t, timers, TimerLinearSolve)
	assert.Greater(t, sol.Stats.Get(TimerTotal).Nanoseconds(), int64(0))

	// strategies without a Schur phase never touch the psd timer
	s, err = New(testOptions("condensing"))
	assert.NoError(t, err)
	sol, err = s.Solve(prob)
	assert.NoError(t, err)
	assert.NotContains(t, sol.Stats.Timers(), TimerPSD)
}

func TestSetLyapunovSolver(t *testing.T) {
	prob := testProblem()

	s, err := New(testOptions("condensing"))
	assert.NoError(t, err)

	lu, err := linsolve.New("lu")
	assert.NoError(t, err)
	direct, err := linsolve.NewLyapunov("direct", lu, nil)
	assert.NoError(t, err)
	counting := &countingLyapunov{inner: direct}
	s.SetLyapunovSolver(counting)

	sol, err := s.Solve(prob)
	assert.NoError(t, err)
	assert.Equal(t, 1, counting.calls)
	assert.Less(t, residual(prob, sol.P), 1e-8)
}

// countingLinear records delegated solve calls without performing any.
type countingLinear struct {
	calls int
}

func (c *countingLinear) Name() string { return "counting" }

func (c *countingLinear) Solve(a, b *mat.Dense) (*mat.Dense, error) {
	c.calls++
	return nil, errors.New("counting solver performs no work")
}

// countingLyapunov wraps a real solver, recording calls.
type countingLyapunov struct {
	inner linsolve.DiscreteLyapunov
	calls int
}

func (c *countingLyapunov) Name() string { return "counting" }

func (c *countingLyapunov) Solve(a, w *mat.Dense) (*mat.Dense, error) {
	c.calls++
	return c.inner.Solve(a, w)
}
