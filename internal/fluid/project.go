package fluid

// project removes the divergent component of (u, v). p and div are scratch
// buffers that must not alias u or v.
func project(u, v, p, div Field, iterations, workers, n int) {
	nf := float64(n)

	parallelRows(n, workers, func(jStart, jEnd int) {
		for j := jStart; j < jEnd; j++ {
			for i := 1; i < n-1; i++ {
				q := i + j*n
				div[q] = -0.5 * ((u[q+1] - u[q-1]) + (v[q+n] - v[q-n])) / nf
				p[q] = 0
			}
		}
	})
	setBoundary(Scalar, div, n)
	setBoundary(Scalar, p, n)

	linearSolve(Scalar, p, div, 1, 4, iterations, n)

	half := 0.5 * nf
	parallelRows(n, workers, func(jStart, jEnd int) {
		for j := jStart; j < jEnd; j++ {
			for i := 1; i < n-1; i++ {
				q := i + j*n
				u[q] -= half * (p[q+1] - p[q-1])
				v[q] -= half * (p[q+n] - p[q-n])
			}
		}
	})
	setBoundary(VelocityX, u, n)
	setBoundary(VelocityY, v, n)
}
