package constants

// Default solver options
const (
	DefaultEpsUnstable   = 1e-4  // stability margin on the Floquet spectral radius
	DefaultPsdNumZero    = 1e-12 // magnitudes below this are treated as exact zeros
	DefaultSymTolerance  = 1e-9  // relative tolerance for the V_k symmetry check
	DefaultLinearSolver  = "lu"
	DefaultLyapSolver    = "direct"
	DefaultSchurMaxSweep = 50 // periodic QR sweeps allowed per eigenvalue
)

// Default collaborator parameters
const (
	DefaultSmithTolerance = 1e-12 // relative update tolerance for the Smith iteration
	DefaultSmithMaxIter   = 100
)
