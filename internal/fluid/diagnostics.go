package fluid

import "math"

// MaxDivergence returns the largest absolute discrete divergence over the
// interior cells, using the same stencil as the projection stage.
func MaxDivergence(u, v Field, n int) float64 {
	nf := float64(n)
	maxDiv := 0.0
	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			q := i + j*n
			d := math.Abs(-0.5 * ((u[q+1] - u[q-1]) + (v[q+n] - v[q-n])) / nf)
			if d > maxDiv {
				maxDiv = d
			}
		}
	}
	return maxDiv
}

// InteriorSum adds up the interior cells of x, ring excluded.
func InteriorSum(x Field, n int) float64 {
	sum := 0.0
	for j := 1; j < n-1; j++ {
		for _, val := range x[1+j*n : n-1+j*n] {
			sum += val
		}
	}
	return sum
}

// IsFinite reports whether x contains no NaN or Inf.
func IsFinite(x Field) bool {
	for _, val := range x {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}
