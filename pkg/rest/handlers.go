package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/gonum/mat"

	"github.com/control-num/dple/pkg/config"
	"github.com/control-num/dple/pkg/psd"
	"github.com/control-num/dple/pkg/solver"
)

// Handlers for REST API calls

// Solution payload: K row-major matrices and the named timers
type SolutionData struct {
	P      [][]float64       `json:"p"`
	PosDef bool              `json:"posDef"`
	Timers map[string]string `json:"timers"`
}

// Floquet multipliers of the cyclic product, as (re, im) pairs
type MultiplierData struct {
	Multipliers    [][2]float64 `json:"multipliers"`
	SpectralRadius float64      `json:"spectralRadius"`
}

func solve(c *gin.Context) {
	var problemData config.ProblemData
	if err := c.BindJSON(&problemData); err != nil {
		return
	}
	problemData.Spec.Options = config.MergeDefaults(problemData.Spec.Options)
	problemData.Spec.Options.ConstDim = len(problemData.Spec.BlockSizes) == 0

	prob, err := solver.FromSpec(&problemData.Spec)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	s, err := solver.New(problemData.Spec.Options)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	sol, err := s.Solve(prob)
	if err != nil {
		c.IndentedJSON(statusOf(err), gin.H{"message": err.Error()})
		return
	}

	out := &SolutionData{
		P:      make([][]float64, len(sol.P)),
		PosDef: sol.PosDef,
		Timers: make(map[string]string),
	}
	for k, p := range sol.P {
		out.P[k] = flatten(p)
	}
	for name, d := range sol.Stats.Timers() {
		out.Timers[name] = d.String()
	}
	c.IndentedJSON(http.StatusOK, out)
}

func multipliers(c *gin.Context) {
	var problemData config.ProblemData
	if err := c.BindJSON(&problemData); err != nil {
		return
	}
	problemData.Spec.Options = config.MergeDefaults(problemData.Spec.Options)

	prob, err := solver.FromSpec(&problemData.Spec)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	dec, err := psd.Decompose(prob.A, psd.Options{NumZero: problemData.Spec.Options.PsdNumZero})
	if err != nil {
		c.IndentedJSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	ms := dec.FloquetMultipliers()
	out := &MultiplierData{
		Multipliers:    make([][2]float64, len(ms)),
		SpectralRadius: dec.SpectralRadius(),
	}
	for i, m := range ms {
		out.Multipliers[i] = [2]float64{real(m), imag(m)}
	}
	c.IndentedJSON(http.StatusOK, out)
}

func getStrategies(c *gin.Context) {
	strategies := []string{
		config.Schur.String(),
		config.Condensing.String(),
		config.Lifting.String(),
		config.Simple.String(),
	}
	c.IndentedJSON(http.StatusOK, strategies)
}

func healthz(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusOf maps solve failures to HTTP codes: bad input is the caller's
// fault, a well-posed system the numerics reject (unstable, or a Schur
// iteration that ran out of budget) is unprocessable, anything else is
// internal.
func statusOf(err error) int {
	var shapeErr *solver.ShapeError
	if errors.As(err, &shapeErr) {
		return http.StatusBadRequest
	}
	var instErr *solver.InstabilityError
	if errors.As(err, &instErr) {
		return http.StatusUnprocessableEntity
	}
	var decErr *solver.DecompositionError
	if errors.As(err, &decErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// flatten returns the row-major entries of a dense matrix.
func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
