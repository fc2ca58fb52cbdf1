package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/fluidsim/internal/fluid"
)

// Metric accumulates an observation of the solver after each step.
type Metric interface {
	Name() string
	Observe(s *fluid.Solver, t float64)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the standard run metrics.
func Defaults() []Metric {
	return []Metric{
		NewMass(),
		NewMassDrift(),
		NewPeak(),
		NewKineticEnergy(),
		NewDivergence(),
		NewStability(1e3),
	}
}

// interiorSum adds the interior rows of x.
func interiorSum(x fluid.Field, n int) float64 {
	sum := 0.0
	for j := 1; j < n-1; j++ {
		sum += floats.Sum(x[1+j*n : n-1+j*n])
	}
	return sum
}

// interiorDot is the dot product of x and y over interior cells.
func interiorDot(x, y fluid.Field, n int) float64 {
	sum := 0.0
	for j := 1; j < n-1; j++ {
		lo, hi := 1+j*n, n-1+j*n
		sum += floats.Dot(x[lo:hi], y[lo:hi])
	}
	return sum
}

type Mass struct {
	name  string
	value float64
}

func NewMass() *Mass { return &Mass{name: "mass"} }

func (m *Mass) Name() string { return m.name }

func (m *Mass) Observe(s *fluid.Solver, t float64) {
	m.value = interiorSum(s.Density(), s.Size())
}

func (m *Mass) Value() float64 { return m.value }
func (m *Mass) Reset()         { m.value = 0 }

// Peak tracks the largest density in the current field.
type Peak struct {
	name  string
	value float64
}

func NewPeak() *Peak { return &Peak{name: "peak_density"} }

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s *fluid.Solver, t float64) {
	p.value = floats.Max(s.Density())
}

func (p *Peak) Value() float64 { return p.value }
func (p *Peak) Reset()         { p.value = 0 }
