package fluid

// RelaxationIterations is the default number of Gauss-Seidel sweeps used by
// the diffusion and pressure solves.
const RelaxationIterations = 20

// linearSolve relaxes x toward the solution of
//
//	x[i,j] = (x0[i,j] + a*(x[i-1,j] + x[i+1,j] + x[i,j-1] + x[i,j+1])) / c
//
// with a fixed number of in-place sweeps. Updated neighbours are reused within
// a sweep, so the sweep order is part of the numerical result.
func linearSolve(kind Boundary, x, x0 Field, a, c float64, iterations, n int) {
	invC := 1.0 / c
	for k := 0; k < iterations; k++ {
		for j := 1; j < n-1; j++ {
			row := j * n
			for i := 1; i < n-1; i++ {
				p := i + row
				x[p] = (x0[p] + a*(x[p-1]+x[p+1]+x[p-n]+x[p+n])) * invC
			}
		}
	}
	setBoundary(kind, x, n)
}

// diffuse writes the implicitly diffused x0 into x. The solve starts from x0
// itself with a wall-consistent ring, which makes constant fields and a = 0
// exact fixed points.
func diffuse(kind Boundary, x, x0 Field, rate, dt float64, iterations, n int) {
	copy(x, x0)
	setBoundary(kind, x, n)

	inner := float64(n - 2)
	a := dt * rate * inner * inner
	linearSolve(kind, x, x0, a, 1+4*a, iterations, n)
}
