// Package solver implements the discrete periodic Lyapunov equation
// engine: given a periodic sequence of transition matrices A_k and noise
// covariances V_k, it computes the periodic covariance sequence P_k with
//
//	P_{k+1 mod K} = A_k * P_k * A_k^T + V_k
//
// through one of four interchangeable strategies (schur, condensing,
// lifting, simple) selected by the solve options. The facade validates
// the problem, dispatches, runs the optional stability check and
// aggregates per-phase timing statistics.
package solver

import (
	"fmt"
	"sync"
	"time"

	"github.com/control-num/dple/internal/constants"
	"github.com/control-num/dple/internal/logger"
	"github.com/control-num/dple/internal/metrics"
	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/linsolve"
	"github.com/control-num/dple/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// Solver is the periodic Lyapunov solve facade. A Solver is immutable
// after construction; independent Solve calls may run concurrently as
// long as they do not share matrix buffers.
type Solver struct {
	registry *Registry
	opts     solveOptions
}

// New builds a solver from user options, resolving the strategy and the
// named collaborator solvers. Unregistered strategy names fail fast with
// UnknownStrategyError before any computation.
func New(opts config.SolverOptions) (*Solver, error) {
	return NewWithRegistry(NewRegistry(), opts)
}

// NewWithRegistry is New with a caller-supplied strategy registry.
func NewWithRegistry(registry *Registry, opts config.SolverOptions) (*Solver, error) {
	opts = config.MergeDefaults(opts)

	strat, ok := config.StrategyEnum(opts.Strategy)
	if !ok {
		return nil, &UnknownStrategyError{Name: opts.Strategy}
	}
	if _, ok := registry.get(strat); !ok {
		return nil, &UnknownStrategyError{Name: opts.Strategy}
	}
	form, ok := config.FormEnum(opts.Form)
	if !ok {
		return nil, fmt.Errorf("unknown lifting form: %q", opts.Form)
	}

	lin, err := linsolve.New(opts.LinearSolver)
	if err != nil {
		return nil, err
	}
	dlyap, err := linsolve.NewLyapunov(opts.LyapunovSolver, lin, linsolve.Parms(opts.SolverParms))
	if err != nil {
		return nil, err
	}

	return &Solver{
		registry: registry,
		opts: solveOptions{
			strategy:      strat,
			posDef:        opts.PosDef,
			constDim:      opts.ConstDim,
			epsUnstable:   opts.EpsUnstable,
			errorUnstable: opts.ErrorUnstable,
			psdNumZero:    opts.PsdNumZero,
			form:          form,
			lin:           lin,
			dlyap:         dlyap,
			parms:         linsolve.Parms(opts.SolverParms),
		},
	}, nil
}

// SetLinearSolver substitutes the generic linear-solver collaborator,
// e.g. for sensitivity computation or deterministic testing.
func (s *Solver) SetLinearSolver(lin linsolve.Linear) {
	s.opts.lin = lin
}

// SetLyapunovSolver substitutes the discrete Lyapunov collaborator used
// by the condensing and lifting strategies.
func (s *Solver) SetLyapunovSolver(dl linsolve.DiscreteLyapunov) {
	s.opts.dlyap = dl
}

// Solve computes the periodic covariance sequence for one problem. The
// returned solution and statistics are owned by the caller.
func (s *Solver) Solve(prob *Problem) (*Solution, error) {
	start := time.Now()
	stats := newStats()
	name := s.opts.strategy.String()

	if err := s.validate(prob); err != nil {
		metrics.RecordError(name, "shape")
		return nil, err
	}

	impl, _ := s.registry.get(s.opts.strategy)

	var p []*mat.Dense
	var err error
	if s.opts.constDim {
		p, err = impl.Solve(prob, &s.opts, stats)
	} else {
		p, err = s.solveBlocks(impl, prob, stats)
	}
	if err != nil {
		metrics.RecordError(name, errorType(err))
		return nil, err
	}

	if s.opts.errorUnstable {
		if err := s.checkStability(prob); err != nil {
			metrics.RecordError(name, "instability")
			return nil, err
		}
	}

	if s.opts.posDef {
		for k := range p {
			factor, err := matrix.CholeskyFactor(p[k], s.opts.psdNumZero)
			if err != nil {
				metrics.RecordError(name, "decomposition")
				return nil, &DecompositionError{Strategy: name, Err: fmt.Errorf("cholesky of P_%d: %w", k, err)}
			}
			p[k] = factor
		}
	}

	total := time.Since(start)
	stats.Add(TimerTotal, total)
	metrics.RecordSolve(name, total)
	if d := stats.Get(TimerPSD); d > 0 {
		metrics.RecordPhase(name, "psd", d)
	}
	if d := stats.Get(TimerLinearSolve); d > 0 {
		metrics.RecordPhase(name, "linear_solve", d)
	}
	if logger.Log != nil {
		logger.Log.Debugw("periodic Lyapunov solve done",
			"strategy", name,
			"period", len(prob.A),
			"t_total", total,
			"t_psd", stats.Get(TimerPSD),
			"t_linear_solve", stats.Get(TimerLinearSolve),
		)
	}

	return &Solution{P: p, PosDef: s.opts.posDef, Stats: stats}, nil
}

// validate enforces the shape and symmetry preconditions before any
// numerical work.
func (s *Solver) validate(prob *Problem) error {
	if prob == nil || len(prob.A) == 0 {
		return &ShapeError{Msg: "empty matrix cycle"}
	}
	if len(prob.A) != len(prob.V) {
		return &ShapeError{Msg: fmt.Sprintf("got %d transition and %d covariance matrices", len(prob.A), len(prob.V))}
	}

	n, c := prob.A[0].Dims()
	if n != c {
		return &ShapeError{Msg: fmt.Sprintf("A_0 is %dx%d, want square", n, c)}
	}
	for k := range prob.A {
		if r, cc := prob.A[k].Dims(); r != n || cc != n {
			return &ShapeError{Msg: fmt.Sprintf("A_%d is %dx%d, want %dx%d", k, r, cc, n, n)}
		}
		if r, cc := prob.V[k].Dims(); r != n || cc != n {
			return &ShapeError{Msg: fmt.Sprintf("V_%d is %dx%d, want %dx%d", k, r, cc, n, n)}
		}
		if !matrix.IsSymmetric(prob.V[k], constants.DefaultSymTolerance) {
			return &ShapeError{Msg: fmt.Sprintf("V_%d is not symmetric", k)}
		}
	}

	if !s.opts.constDim {
		if len(prob.BlockSizes) == 0 {
			return &ShapeError{Msg: "varying-dimension problem without block sizes"}
		}
		total := 0
		for i, b := range prob.BlockSizes {
			if b <= 0 {
				return &ShapeError{Msg: fmt.Sprintf("block %d has size %d", i, b)}
			}
			total += b
		}
		if total != n {
			return &ShapeError{Msg: fmt.Sprintf("block sizes sum to %d, want %d", total, n)}
		}
	}
	return nil
}

// solveBlocks decomposes a block-diagonal varying-dimension problem into
// independent constant-dimension subproblems, solves them concurrently
// and reassembles the block-diagonal result in deterministic block order.
func (s *Solver) solveBlocks(impl strategy, prob *Problem, stats *Stats) ([]*mat.Dense, error) {
	k := len(prob.A)
	nb := len(prob.BlockSizes)

	subs := make([]*Problem, nb)
	for b := 0; b < nb; b++ {
		subs[b] = &Problem{A: make([]*mat.Dense, k), V: make([]*mat.Dense, k)}
	}
	for i := 0; i < k; i++ {
		aBlocks, err := matrix.ExtractBlocks(prob.A[i], prob.BlockSizes)
		if err != nil {
			return nil, &ShapeError{Msg: err.Error()}
		}
		vBlocks, err := matrix.ExtractBlocks(prob.V[i], prob.BlockSizes)
		if err != nil {
			return nil, &ShapeError{Msg: err.Error()}
		}
		for b := 0; b < nb; b++ {
			subs[b].A[i] = aBlocks[b]
			subs[b].V[i] = vBlocks[b]
		}
	}

	// subproblems share no state; each gets its own statistics record
	results := make([][]*mat.Dense, nb)
	errs := make([]error, nb)
	subStats := make([]*Stats, nb)
	var wg sync.WaitGroup
	for b := 0; b < nb; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			subStats[b] = newStats()
			results[b], errs[b] = impl.Solve(subs[b], &s.opts, subStats[b])
		}(b)
	}
	wg.Wait()

	for b := 0; b < nb; b++ {
		if errs[b] != nil {
			return nil, errs[b]
		}
		for timer, d := range subStats[b].Timers() {
			stats.Add(timer, d)
		}
	}

	out := make([]*mat.Dense, k)
	for i := 0; i < k; i++ {
		blocks := make([]*mat.Dense, nb)
		for b := 0; b < nb; b++ {
			blocks[b] = results[b][i]
		}
		out[i] = matrix.BlockDiag(blocks)
	}
	return out, nil
}

// checkStability computes the spectral radius of the cyclic product
// A_{K-1}...A_0 and enforces the configured margin.
func (s *Solver) checkStability(prob *Problem) error {
	n, _ := prob.A[0].Dims()
	prod := mat.NewDense(n, n, nil)
	prod.Copy(prob.A[0])
	for k := 1; k < len(prob.A); k++ {
		var tmp mat.Dense
		tmp.Mul(prob.A[k], prod)
		prod.Copy(&tmp)
	}

	rho, err := matrix.SpectralRadius(prod)
	if err != nil {
		return fmt.Errorf("stability check: %w", err)
	}
	if rho > 1-s.opts.epsUnstable {
		return &InstabilityError{SpectralRadius: rho, Margin: s.opts.epsUnstable}
	}
	return nil
}

// errorType maps an error to its metrics label.
func errorType(err error) string {
	switch err.(type) {
	case *ShapeError:
		return "shape"
	case *DecompositionError:
		return "decomposition"
	case *LinearSolverError:
		return "linear_solver"
	case *InstabilityError:
		return "instability"
	default:
		return "other"
	}
}
