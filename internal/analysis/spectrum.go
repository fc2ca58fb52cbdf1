package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// interior copies the non-boundary cells of x into rows indexed [j][i].
func interior(x fluid.Field, n int) [][]float64 {
	m := n - 2
	rows := make([][]float64, m)
	for j := 0; j < m; j++ {
		start := 1 + (j+1)*n
		rows[j] = append([]float64(nil), x[start:start+m]...)
	}
	return rows
}

func wrap(k, m int) int {
	if k > m/2 {
		return k - m
	}
	return k
}

// EnergySpectrum returns E(k), the kinetic energy of the interior velocity
// in each integer wavenumber shell. The shells add up to ½Σ(u²+v²), the
// same total the kinetic_energy metric reports.
func EnergySpectrum(u, v fluid.Field, n int) []float64 {
	m := n - 2
	if m <= 0 {
		return nil
	}
	uh := fft.FFT2Real(interior(u, n))
	vh := fft.FFT2Real(interior(v, n))

	shells := int(math.Ceil(math.Sqrt2*float64(m)/2)) + 1
	out := make([]float64, shells)
	norm := float64(m * m)
	for ky := 0; ky < m; ky++ {
		for kx := 0; kx < m; kx++ {
			k := int(math.Round(math.Hypot(float64(wrap(kx, m)), float64(wrap(ky, m)))))
			a, b := cmplx.Abs(uh[ky][kx]), cmplx.Abs(vh[ky][kx])
			out[k] += 0.5 * (a*a + b*b) / norm
		}
	}
	return out
}

// PeakWavenumber is the shell holding the most energy, ignoring the mean
// flow in shell 0. It returns 0 for still fluid.
func PeakWavenumber(energy []float64) int {
	peak, best := 0, 0.0
	for k := 1; k < len(energy); k++ {
		if energy[k] > best {
			peak, best = k, energy[k]
		}
	}
	return peak
}

// Vorticity returns ∂v/∂x − ∂u/∂y by central differences, with the grid
// spanning unit length. Boundary cells are left at zero.
func Vorticity(u, v fluid.Field, n int) fluid.Field {
	w := make(fluid.Field, n*n)
	half := float64(n-2) / 2
	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			q := i + j*n
			w[q] = ((v[q+1] - v[q-1]) - (u[q+n] - u[q-n])) * half
		}
	}
	return w
}

// Enstrophy is ½Σω² over the interior.
func Enstrophy(w fluid.Field, n int) float64 {
	sum := 0.0
	for j := 1; j < n-1; j++ {
		for _, val := range w[1+j*n : n-1+j*n] {
			sum += val * val
		}
	}
	return 0.5 * sum
}

// MaxAbs returns the largest magnitude in x.
func MaxAbs(x fluid.Field) float64 {
	peak := 0.0
	for _, val := range x {
		peak = math.Max(peak, math.Abs(val))
	}
	return peak
}
