package emitter

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/san-kum/fluidsim/internal/fluid"
)

const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3

	// NoiseStep is how far along the noise curve each push advances.
	NoiseStep = 0.01
)

// Jet feeds a 3×3 block of density around (X, Y) every step and pushes the
// centre cell twice with a fixed force whose heading drifts with Perlin noise.
type Jet struct {
	X, Y      int
	Force     float64
	MinAmount float64
	MaxAmount float64
	Pushes    int

	noise *perlin.Perlin
	rng   *rand.Rand
	t     float64
}

func NewJet(x, y int, seed int64) *Jet {
	return &Jet{
		X:         x,
		Y:         y,
		Force:     0.2,
		MinAmount: 50,
		MaxAmount: 150,
		Pushes:    2,
		noise:     perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (j *Jet) Emit(s *fluid.Solver, step int) error {
	g := s.Grid()
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if !g.Contains(j.X+dx, j.Y+dy) {
				return &fluid.RangeError{I: j.X + dx, J: j.Y + dy, N: g.N}
			}
		}
	}

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			amount := j.MinAmount + j.rng.Float64()*(j.MaxAmount-j.MinAmount)
			if err := s.AddDensity(j.X+dx, j.Y+dy, amount); err != nil {
				return err
			}
		}
	}

	for k := 0; k < j.Pushes; k++ {
		angle := j.Heading()
		j.t += NoiseStep
		if err := s.AddVelocity(j.X, j.Y, math.Cos(angle)*j.Force, math.Sin(angle)*j.Force); err != nil {
			return err
		}
	}
	return nil
}

// Heading returns the push angle, in radians, at the current noise time.
func (j *Jet) Heading() float64 {
	return j.noise.Noise1D(j.t) * 2 * math.Pi * 2
}
