package emitter

import "github.com/san-kum/fluidsim/internal/fluid"

// Point splats density and velocity into a square of cells centred on (X, Y).
// With Every == 0 it fires only on step 0.
type Point struct {
	X, Y   int
	Amount float64
	VX, VY float64
	Radius int
	Every  int
}

func NewPoint(x, y int, amount float64) *Point {
	return &Point{X: x, Y: y, Amount: amount}
}

func (p *Point) Emit(s *fluid.Solver, step int) error {
	if !p.fires(step) {
		return nil
	}

	// Only the centre is required to be on the grid.
	g := s.Grid()
	if !g.Contains(p.X, p.Y) {
		return &fluid.RangeError{I: p.X, J: p.Y, N: g.N}
	}
	for j := p.Y - p.Radius; j <= p.Y+p.Radius; j++ {
		for i := p.X - p.Radius; i <= p.X+p.Radius; i++ {
			if !g.Contains(i, j) {
				continue
			}
			if err := s.AddDensity(i, j, p.Amount); err != nil {
				return err
			}
			if p.VX != 0 || p.VY != 0 {
				if err := s.AddVelocity(i, j, p.VX, p.VY); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *Point) fires(step int) bool {
	if p.Every <= 0 {
		return step == 0
	}
	return step%p.Every == 0
}
