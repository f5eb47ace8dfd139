package solver

import "fmt"

// ShapeError reports a dimension or symmetry precondition violation.
// It is raised before any numerical work starts and is never recovered.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape error: %s", e.Msg)
}

// UnknownStrategyError reports a strategy name with no registered
// implementation. Raised at solver construction, before any computation.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown strategy: %q", e.Name)
}

// DecompositionError reports a periodic Schur iteration that did not
// converge within its budget. Retrying with different numerics is a
// caller policy decision; the engine does not retry.
type DecompositionError struct {
	Strategy string
	Err      error
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("decomposition failed in strategy %s: %v", e.Strategy, e.Err)
}

func (e *DecompositionError) Unwrap() error { return e.Err }

// LinearSolverError reports a singular or failed delegated solve, with
// the originating strategy attached.
type LinearSolverError struct {
	Strategy string
	Err      error
}

func (e *LinearSolverError) Error() string {
	return fmt.Sprintf("linear solver failed in strategy %s: %v", e.Strategy, e.Err)
}

func (e *LinearSolverError) Unwrap() error { return e.Err }

// InstabilityError reports a spectral radius of the cyclic product that
// violates the configured stability margin. Only raised when the
// errorUnstable option is set; the computed radius and the margin let
// the caller decide whether to trust the solution anyway.
type InstabilityError struct {
	SpectralRadius float64
	Margin         float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("periodic system is unstable: spectral radius %g exceeds 1 - %g", e.SpectralRadius, e.Margin)
}
