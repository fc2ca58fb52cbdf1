package stream

import (
	"fmt"

	"github.com/san-kum/fluidsim/internal/emitter"
)

// Client actions.
const (
	ActionSplat = "splat"
	ActionReset = "reset"
	ActionPause = "pause"
)

const (
	splatDensity = 100.0
	dragForce    = 0.1
)

// Input is a client message. X and Y are in [0, 1] across the visible
// interior; DX and DY are the pointer movement in the same units.
type Input struct {
	Action  string  `json:"action"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
	Density float64 `json:"density"`
}

// Hello is the first text message on every connection.
type Hello struct {
	N       int      `json:"n"`
	Dt      float64  `json:"dt"`
	FPS     int      `json:"fps"`
	Palette []string `json:"palette"`
}

// cellFor maps normalized coordinates onto interior cells of an n×n grid.
func cellFor(x, y float64, n int) (int, int) {
	inner := float64(n - 2)
	i := 1 + int(x*inner)
	j := 1 + int(y*inner)
	return max(1, min(n-2, i)), max(1, min(n-2, j))
}

// impulse converts a splat into grid units. Drag distance is scaled to
// cells so a pointer swipe behaves the same at any grid size.
func (in Input) impulse(n int) (emitter.Impulse, error) {
	if in.X < 0 || in.X > 1 || in.Y < 0 || in.Y > 1 {
		return emitter.Impulse{}, fmt.Errorf("splat at (%g, %g) outside [0, 1]", in.X, in.Y)
	}
	i, j := cellFor(in.X, in.Y, n)
	d := in.Density
	if d == 0 {
		d = splatDensity
	}
	inner := float64(n - 2)
	return emitter.Impulse{
		I:       i,
		J:       j,
		Density: d,
		VX:      in.DX * inner * dragForce,
		VY:      in.DY * inner * dragForce,
	}, nil
}
