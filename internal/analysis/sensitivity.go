package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
)

var (
	ErrNoSeparation = errors.New("analysis: runs start identical")
	ErrSizeMismatch = errors.New("analysis: grids differ in size")
)

// Distance is the L2 norm of a−b over the interior.
func Distance(a, b fluid.Field, n int) float64 {
	sum := 0.0
	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			d := a[i+j*n] - b[i+j*n]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

// Sensitivity advances a and b together for steps and estimates how fast
// their densities separate:
//
//	λ ≈ (1/t) ln(d(t)/d(0))
//
// averaged over the run. Negative values mean diffusion wins and the
// perturbation dies out. The per-step distances are returned as well.
func Sensitivity(a, b *sim.Simulator, steps int) (float64, []float64, error) {
	n := a.Solver().Size()
	if b.Solver().Size() != n {
		return 0, nil, ErrSizeMismatch
	}
	d0 := Distance(a.Solver().Density(), b.Solver().Density(), n)
	if d0 == 0 {
		return 0, nil, ErrNoSeparation
	}

	dist := make([]float64, 0, steps)
	sumRate, count := 0.0, 0
	for k := 0; k < steps; k++ {
		// emitter errors are input problems, both runs see the same ones
		_ = a.Advance()
		_ = b.Advance()
		if !a.Finite() || !b.Finite() {
			return 0, dist, sim.SimError{Step: k, Time: a.Time(), Message: "invalid state (NaN/Inf)"}
		}

		d := Distance(a.Solver().Density(), b.Solver().Density(), n)
		dist = append(dist, d)
		if d > 0 {
			sumRate += math.Log(d/d0) / a.Time()
			count++
		}
	}
	if count == 0 {
		return math.Inf(-1), dist, nil
	}
	return sumRate / float64(count), dist, nil
}
