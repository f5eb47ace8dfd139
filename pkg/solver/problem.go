package solver

import (
	"fmt"

	"github.com/control-num/dple/pkg/config"
	"gonum.org/v1/gonum/mat"
)

// FromSpec turns a declarative problem payload into dense matrix cycles.
func FromSpec(spec *config.ProblemSpec) (*Problem, error) {
	if spec.Period != len(spec.A) || spec.Period != len(spec.V) {
		return nil, fmt.Errorf("period %d does not match %d A and %d V payloads", spec.Period, len(spec.A), len(spec.V))
	}
	n := spec.Dim
	if n <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", n)
	}

	prob := &Problem{
		A:          make([]*mat.Dense, spec.Period),
		V:          make([]*mat.Dense, spec.Period),
		BlockSizes: spec.BlockSizes,
	}
	for k := 0; k < spec.Period; k++ {
		if len(spec.A[k]) != n*n || len(spec.V[k]) != n*n {
			return nil, fmt.Errorf("matrix %d payload has %d entries, want %d", k, len(spec.A[k]), n*n)
		}
		prob.A[k] = mat.NewDense(n, n, spec.A[k])
		prob.V[k] = mat.NewDense(n, n, spec.V[k])
	}
	return prob, nil
}
