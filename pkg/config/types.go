package config

// Strategy selects the periodic Lyapunov solve algorithm
type Strategy int

const (
	Schur      Strategy = iota // 0 : periodic Schur decomposition (robust, general purpose)
	Condensing                 // 1 : condense the period into one discrete Lyapunov equation
	Lifting                    // 2 : lift to a single Kn x Kn discrete Lyapunov equation
	Simple                     // 3 : direct solve of the vectorized boundary system
)

func (s Strategy) String() string {
	switch s {
	case Schur:
		return "schur"
	case Condensing:
		return "condensing"
	case Lifting:
		return "lifting"
	case Simple:
		return "simple"
	default:
		return "unknown"
	}
}

// StrategyEnum maps a strategy name to its enum value; ok is false for
// unrecognized names.
func StrategyEnum(s string) (Strategy, bool) {
	switch s {
	case "schur":
		return Schur, true
	case "condensing":
		return Condensing, true
	case "lifting":
		return Lifting, true
	case "simple":
		return Simple, true
	default:
		return Schur, false
	}
}

// Form selects between the two equivalent block arrangements of the
// lifted operator (lifting strategy only)
type Form int

const (
	FormA Form = iota // 0 : blocks at (k+1 mod K, k)
	FormB             // 1 : blocks at (k, k+1 mod K), transposed arrangement
)

func (f Form) String() string {
	switch f {
	case FormA:
		return "A"
	case FormB:
		return "B"
	default:
		return "unknown"
	}
}

func FormEnum(s string) (Form, bool) {
	switch s {
	case "A", "a", "":
		return FormA, true
	case "B", "b":
		return FormB, true
	default:
		return FormA, false
	}
}

// Options for a periodic Lyapunov solve.
//
// The zero value of ConstDim selects the varying-dimension path, which
// requires a block partition on the problem. Callers building options
// by hand should start from DefaultSolverOptions; loaders derive
// ConstDim from the block partition of the file or request.
type SolverOptions struct {
	Strategy       string             `json:"strategy" yaml:"strategy"`             // schur | condensing | lifting | simple
	PosDef         bool               `json:"posDef" yaml:"posDef"`                 // return Cholesky factors instead of P_k
	ConstDim       bool               `json:"constDim" yaml:"constDim"`             // all matrices share one dimension
	EpsUnstable    float64            `json:"epsUnstable" yaml:"epsUnstable"`       // stability margin on the spectral radius
	ErrorUnstable  bool               `json:"errorUnstable" yaml:"errorUnstable"`   // fail when spectral radius > 1 - epsUnstable
	PsdNumZero     float64            `json:"psdNumZero" yaml:"psdNumZero"`         // numerical zero threshold (schur only)
	Form           string             `json:"form" yaml:"form"`                     // lifted operator arrangement (lifting only)
	LinearSolver   string             `json:"linearSolver" yaml:"linearSolver"`     // named linear solver collaborator
	LyapunovSolver string             `json:"lyapunovSolver" yaml:"lyapunovSolver"` // named discrete Lyapunov collaborator
	SolverParms    map[string]float64 `json:"solverParms,omitempty" yaml:"solverParms,omitempty"`
	// opaque parameters passed through to the collaborators
}

// Input data for one periodic Lyapunov problem
type ProblemData struct {
	Spec ProblemSpec `json:"problem" yaml:"problem"`
}

// Specification of a periodic Lyapunov problem
type ProblemSpec struct {
	Period     int           `json:"period" yaml:"period"`                             // number of matrices in the cycle (K)
	Dim        int           `json:"dim" yaml:"dim"`                                   // state dimension (n), constDim case
	BlockSizes []int         `json:"blockSizes,omitempty" yaml:"blockSizes,omitempty"` // block partition, varying-dimension case
	A          [][]float64   `json:"a" yaml:"a"`                                       // K row-major n*n transition matrices
	V          [][]float64   `json:"v" yaml:"v"`                                       // K row-major n*n noise covariances
	Options    SolverOptions `json:"options" yaml:"options"`                           // solve options
}
