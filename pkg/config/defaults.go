package config

import "github.com/control-num/dple/internal/constants"

// DefaultSolverOptions returns the permissive option set: schur strategy,
// raw P_k output, constant dimension, stability check disabled.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Strategy:       Schur.String(),
		PosDef:         false,
		ConstDim:       true,
		EpsUnstable:    constants.DefaultEpsUnstable,
		ErrorUnstable:  false,
		PsdNumZero:     constants.DefaultPsdNumZero,
		Form:           FormA.String(),
		LinearSolver:   constants.DefaultLinearSolver,
		LyapunovSolver: constants.DefaultLyapSolver,
	}
}
