// Package linsolve provides the solver collaborators consumed by the
// periodic Lyapunov strategies: generic linear solvers selectable by name,
// and discrete (non-periodic) Lyapunov solvers built on top of them. Both
// are capability interfaces so tests can substitute deterministic fakes.
package linsolve

import "gonum.org/v1/gonum/mat"

// Linear solves the dense system A * X = B.
type Linear interface {
	// Name of the solver implementation
	Name() string
	// Solve returns X with A * X = B, or an error on singularity.
	Solve(a *mat.Dense, b *mat.Dense) (*mat.Dense, error)
}

// DiscreteLyapunov solves the discrete Lyapunov equation
// A * P * A^T - P + W = 0 for symmetric P.
type DiscreteLyapunov interface {
	// Name of the solver implementation
	Name() string
	// Solve returns the symmetric solution P.
	Solve(a *mat.Dense, w *mat.Dense) (*mat.Dense, error)
}

// Parms are opaque per-solver parameters passed through from the solve
// options (iteration budgets, tolerances).
type Parms map[string]float64

// Get returns the named parameter, or def when absent.
func (p Parms) Get(key string, def float64) float64 {
	if p == nil {
		return def
	}
	if v, ok := p[key]; ok {
		return v
	}
	return def
}
