package main

import (
	"fmt"
	"os"

	kalman "github.com/llm-inferno/kalman-filter/pkg/core"
	"gonum.org/v1/gonum/mat"

	"github.com/control-num/dple/internal/logger"
	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/solver"
)

// Cross-check of the periodic Lyapunov engine against a Kalman filter:
// for a stable periodic system driven by process noise, the filter's
// predicted state covariance settles onto the periodic solution P_k of
//
//	P_{k+1} = A_k P_k A_k^T + V_k
//
// when no measurements arrive. The demo runs the filter prediction for
// many periods and compares the settled covariance with P_0 from the
// solver facade.
func main() {
	log, err := logger.InitLogger()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.SyncLogger()

	// two-phase period: a slow and a fast contraction with rotation
	a0 := mat.NewDense(2, 2, []float64{0.6, 0.2, -0.2, 0.6})
	a1 := mat.NewDense(2, 2, []float64{0.8, 0.0, 0.1, 0.5})
	v0 := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	v1 := mat.NewDense(2, 2, []float64{0.5, 0.1, 0.1, 0.5})

	opts := config.DefaultSolverOptions()
	s, err := solver.New(opts)
	if err != nil {
		log.Errorf("creating solver: %v", err)
		os.Exit(1)
	}
	sol, err := s.Solve(&solver.Problem{
		A: []*mat.Dense{a0, a1},
		V: []*mat.Dense{v0, v1},
	})
	if err != nil {
		log.Errorf("solve failed: %v", err)
		os.Exit(1)
	}

	// Kalman filter with the same dynamics, prediction only
	x0 := mat.NewVecDense(2, nil)
	p0 := mat.NewDense(2, 2, []float64{10, 0, 0, 10})
	f, err := kalman.NewExtendedKalmanFilter(2, 2, x0, p0)
	if err != nil {
		log.Errorf("creating filter: %v", err)
		os.Exit(1)
	}

	steps := [][2]*mat.Dense{{a0, v0}, {a1, v1}}
	for period := 0; period < 200; period++ {
		for _, step := range steps {
			a, v := step[0], step[1]
			if err := f.SetfF(func(x *mat.VecDense) *mat.VecDense {
				out := mat.NewVecDense(2, nil)
				out.MulVec(a, x)
				return out
			}); err != nil {
				log.Errorf("setting transition: %v", err)
				os.Exit(1)
			}
			if err := f.SetQ(v); err != nil {
				log.Errorf("setting process noise: %v", err)
				os.Exit(1)
			}
			if err := f.Predict(v); err != nil {
				log.Errorf("prediction: %v", err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("DPLE P_0 =\n%v\n", mat.Formatted(sol.P[0], mat.Squeeze()))
	fmt.Printf("Kalman settled covariance =\n%v\n", mat.Formatted(f.P, mat.Squeeze()))

	var diff mat.Dense
	diff.Sub(sol.P[0], f.P)
	fmt.Printf("difference norm: %g\n", mat.Norm(&diff, 2))
}
