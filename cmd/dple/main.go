package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/control-num/dple/internal/logger"
	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/psd"
	"github.com/control-num/dple/pkg/solver"
	"gonum.org/v1/gonum/mat"
)

// solve a periodic Lyapunov problem described in a JSON or YAML file
// and print the covariance sequence with timing statistics
func main() {
	var problemFile string
	var strategyFlag string
	flag.StringVar(&problemFile, "f", "", "problem file (.json, .yaml)")
	flag.StringVar(&strategyFlag, "strategy", "", "override the strategy from the file")
	flag.Parse()

	log, err := logger.InitLogger()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.SyncLogger()

	if problemFile == "" {
		fmt.Println("usage: dple -f problem.yaml [-strategy schur|condensing|lifting|simple]")
		os.Exit(1)
	}

	data, err := config.ReadProblemData(problemFile)
	if err != nil {
		log.Errorf("loading problem: %v", err)
		os.Exit(1)
	}
	if strategyFlag != "" {
		data.Spec.Options.Strategy = strategyFlag
	}

	prob, err := solver.FromSpec(&data.Spec)
	if err != nil {
		log.Errorf("building problem: %v", err)
		os.Exit(1)
	}

	s, err := solver.New(data.Spec.Options)
	if err != nil {
		log.Errorf("creating solver: %v", err)
		os.Exit(1)
	}

	sol, err := s.Solve(prob)
	if err != nil {
		log.Errorf("solve failed: %v", err)
		os.Exit(1)
	}

	for k, p := range sol.P {
		label := "P"
		if sol.PosDef {
			label = "L"
		}
		fmt.Printf("%s_%d =\n%v\n", label, k, mat.Formatted(p, mat.Prefix(""), mat.Squeeze()))
	}

	if dec, err := psd.Decompose(prob.A, psd.Options{NumZero: data.Spec.Options.PsdNumZero}); err == nil {
		log.Infow("floquet", "spectralRadius", dec.SpectralRadius())
	}
	for name, d := range sol.Stats.Timers() {
		log.Infow("timer", "name", name, "elapsed", d)
	}
}
