package fluid

// Boundary selects the wall condition applied to a field's outer ring.
type Boundary int

const (
	// Scalar copies the adjacent interior value on every wall.
	Scalar Boundary = iota
	// VelocityX negates the adjacent value on the left and right walls.
	VelocityX
	// VelocityY negates the adjacent value on the top and bottom walls.
	VelocityY
)

func (b Boundary) String() string {
	switch b {
	case VelocityX:
		return "velocity-x"
	case VelocityY:
		return "velocity-y"
	default:
		return "scalar"
	}
}

// setBoundary derives the ring of x from its interior neighbours. Corners
// average their two adjacent edge cells, so edges must be written first.
func setBoundary(kind Boundary, x Field, n int) {
	sx, sy := 1.0, 1.0
	switch kind {
	case VelocityX:
		sx = -1
	case VelocityY:
		sy = -1
	}

	last := n - 1
	for k := 1; k < last; k++ {
		x[k*n] = sx * x[1+k*n]
		x[last+k*n] = sx * x[last-1+k*n]
		x[k] = sy * x[k+n]
		x[k+last*n] = sy * x[k+(last-1)*n]
	}

	x[0] = 0.5 * (x[1] + x[n])
	x[last*n] = 0.5 * (x[1+last*n] + x[(last-1)*n])
	x[last] = 0.5 * (x[last-1] + x[last+n])
	x[last+last*n] = 0.5 * (x[last-1+last*n] + x[last+(last-1)*n])
}
