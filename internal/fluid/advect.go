package fluid

import "math"

// advect transports d0 along (u, v) for one time step and writes the result
// into d. Each interior cell is traced backwards and d0 is sampled bilinearly
// at the clamped source position.
func advect(kind Boundary, d, d0, u, v Field, dt float64, workers, n int) {
	dt0 := dt * float64(n-2)
	lo, hi := 0.5, float64(n)-1.5

	parallelRows(n, workers, func(jStart, jEnd int) {
		for j := jStart; j < jEnd; j++ {
			for i := 1; i < n-1; i++ {
				q := i + j*n

				x := clamp(float64(i)-dt0*u[q], lo, hi)
				y := clamp(float64(j)-dt0*v[q], lo, hi)

				fi, fj := math.Floor(x), math.Floor(y)
				i0, j0 := int(fi), int(fj)
				s1, t1 := x-fi, y-fj
				s0, t0 := 1-s1, 1-t1

				p00 := i0 + j0*n
				p01 := p00 + n
				d[q] = s0*(t0*d0[p00]+t1*d0[p01]) +
					s1*(t0*d0[p00+1]+t1*d0[p01+1])
			}
		}
	})
	setBoundary(kind, d, n)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
