package solver

import (
	"time"

	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/linsolve"
	"gonum.org/v1/gonum/mat"
)

// Named timers exposed in the statistics record.
const (
	TimerTotal       = "t_total"
	TimerPSD         = "t_psd"
	TimerLinearSolve = "t_linear_solve"
)

// Problem holds one periodic Lyapunov problem: K transition matrices A_k
// and K symmetric noise covariances V_k, cyclically indexed. When the
// constDim option is false, BlockSizes describes the shared block-diagonal
// partition of every matrix in the cycle.
type Problem struct {
	A          []*mat.Dense
	V          []*mat.Dense
	BlockSizes []int
}

// Solution is the periodic covariance sequence produced by one solve
// call. The caller owns it; the solver keeps no reference. When PosDef
// is set the sequence holds lower Cholesky factors L_k with
// P_k = L_k * L_k^T instead of the P_k themselves.
type Solution struct {
	P      []*mat.Dense
	PosDef bool
	Stats  *Stats
}

// Stats is the named-timer record produced fresh per solve call.
type Stats struct {
	timers map[string]time.Duration
}

func newStats() *Stats {
	return &Stats{timers: make(map[string]time.Duration)}
}

// Add accumulates elapsed time under a named timer.
func (s *Stats) Add(name string, d time.Duration) {
	s.timers[name] += d
}

// Get returns the accumulated duration of a named timer.
func (s *Stats) Get(name string) time.Duration {
	return s.timers[name]
}

// Timers returns a copy of all named timers.
func (s *Stats) Timers() map[string]time.Duration {
	out := make(map[string]time.Duration, len(s.timers))
	for k, v := range s.timers {
		out[k] = v
	}
	return out
}

// strategy is the contract every solve algorithm implements: same
// inputs, same outputs, interchangeable behind the facade.
type strategy interface {
	Name() string
	Solve(prob *Problem, opts *solveOptions, stats *Stats) ([]*mat.Dense, error)
}

// solveOptions is the parsed, collaborator-resolved form of the
// user-facing config.SolverOptions.
type solveOptions struct {
	strategy      config.Strategy
	posDef        bool
	constDim      bool
	epsUnstable   float64
	errorUnstable bool
	psdNumZero    float64
	form          config.Form
	lin           linsolve.Linear
	dlyap         linsolve.DiscreteLyapunov
	parms         linsolve.Parms
}

// Registry maps strategy enums to implementations. It is an explicit
// object with explicit lifetime; there is no process-wide plugin table.
type Registry struct {
	strategies map[config.Strategy]strategy
}

// NewRegistry returns a registry holding the four built-in strategies.
func NewRegistry() *Registry {
	return &Registry{
		strategies: map[config.Strategy]strategy{
			config.Schur:      &schurStrategy{},
			config.Condensing: &condensingStrategy{},
			config.Lifting:    &liftingStrategy{},
			config.Simple:     &simpleStrategy{},
		},
	}
}

func (r *Registry) get(s config.Strategy) (strategy, bool) {
	impl, ok := r.strategies[s]
	return impl, ok
}
