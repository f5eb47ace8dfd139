package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/control-num/dple/pkg/utils"
)

// ReadProblemData loads a problem description from a JSON or YAML file,
// chosen by extension. Options left unset in the file get their defaults.
func ReadProblemData(path string) (*ProblemData, error) {
	byteValue, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading problem file: %w", err)
	}

	var data *ProblemData
	switch filepath.Ext(path) {
	case ".json":
		if data, err = utils.FromDataToSpec(byteValue, ProblemData{}); err != nil {
			return nil, fmt.Errorf("parsing problem file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if data, err = utils.FromYamlToSpec(byteValue, ProblemData{}); err != nil {
			return nil, fmt.Errorf("parsing problem file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported problem file extension: %s", path)
	}

	data.Spec.Options = MergeDefaults(data.Spec.Options)
	// the block partition, not the flag, is authoritative in a file
	data.Spec.Options.ConstDim = len(data.Spec.BlockSizes) == 0
	return data, nil
}

// MergeDefaults fills zero-valued option fields with their defaults.
// A zero EpsUnstable or PsdNumZero means "unset"; an exact numerical
// zero threshold is expressed by a negligible positive value. Booleans
// cannot be defaulted this way: ConstDim in particular stays false and
// is instead derived from the block partition by the loaders.
func MergeDefaults(opts SolverOptions) SolverOptions {
	def := DefaultSolverOptions()
	if opts.Strategy == "" {
		opts.Strategy = def.Strategy
	}
	if opts.EpsUnstable == 0 {
		opts.EpsUnstable = def.EpsUnstable
	}
	if opts.PsdNumZero == 0 {
		opts.PsdNumZero = def.PsdNumZero
	}
	if opts.Form == "" {
		opts.Form = def.Form
	}
	if opts.LinearSolver == "" {
		opts.LinearSolver = def.LinearSolver
	}
	if opts.LyapunovSolver == "" {
		opts.LyapunovSolver = def.LyapunovSolver
	}
	return opts
}
