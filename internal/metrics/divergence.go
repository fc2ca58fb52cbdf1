package metrics

import (
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// Divergence tracks the largest post-step residual divergence of the velocity
// seen over the run.
type Divergence struct {
	name string
	peak float64
}

func NewDivergence() *Divergence {
	return &Divergence{name: "max_divergence"}
}

func (d *Divergence) Name() string { return d.name }

func (d *Divergence) Observe(s *fluid.Solver, t float64) {
	u, v := s.Velocity()
	d.peak = math.Max(d.peak, fluid.MaxDivergence(u, v, s.Size()))
}

func (d *Divergence) Value() float64 { return d.peak }

func (d *Divergence) Reset() { d.peak = 0 }
