package linsolve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// New returns the named linear solver. Known names: "lu", "qr".
func New(name string) (Linear, error) {
	switch name {
	case "lu":
		return &luSolver{}, nil
	case "qr":
		return &qrSolver{}, nil
	default:
		return nil, fmt.Errorf("unknown linear solver: %s", name)
	}
}

// luSolver solves through a partially pivoted LU factorization.
type luSolver struct{}

func (s *luSolver) Name() string { return "lu" }

func (s *luSolver) Solve(a, b *mat.Dense) (*mat.Dense, error) {
	var lu mat.LU
	lu.Factorize(a)

	br, bc := b.Dims()
	x := mat.NewDense(br, bc, nil)
	if err := lu.SolveTo(x, false, b); err != nil {
		// an ill-conditioned but solvable system still yields a result
		if _, conditioned := err.(mat.Condition); !conditioned {
			return nil, fmt.Errorf("lu solve: %w", err)
		}
	}
	return x, nil
}

// qrSolver solves through a QR factorization, tolerating rectangular
// right-hand-side shapes the same way as the LU path.
type qrSolver struct{}

func (s *qrSolver) Name() string { return "qr" }

func (s *qrSolver) Solve(a, b *mat.Dense) (*mat.Dense, error) {
	var qr mat.QR
	qr.Factorize(a)

	_, ac := a.Dims()
	_, bc := b.Dims()
	x := mat.NewDense(ac, bc, nil)
	if err := qr.SolveTo(x, false, b); err != nil {
		if _, conditioned := err.(mat.Condition); !conditioned {
			return nil, fmt.Errorf("qr solve: %w", err)
		}
	}
	return x, nil
}
