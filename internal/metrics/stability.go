package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// Stability is the fraction of observed steps whose fields were finite and
// whose speed stayed below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sv *fluid.Solver, t float64) {
	s.samples++
	u, v := sv.Velocity()
	if !fluid.IsFinite(sv.Density()) || !fluid.IsFinite(u) || !fluid.IsFinite(v) {
		s.violations++
		return
	}
	speed := math.Max(
		math.Max(floats.Max(u), -floats.Min(u)),
		math.Max(floats.Max(v), -floats.Min(v)),
	)
	if speed > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
