package sim

import "github.com/san-kum/fluidsim/internal/fluid"

// Emitter injects impulses before each step.
type Emitter interface {
	Emit(s *fluid.Solver, step int) error
}

type Metric interface {
	Name() string
	Observe(s *fluid.Solver, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *fluid.Solver, step int, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *fluid.Solver, step int, t float64)

func (f ObserverFunc) OnStep(s *fluid.Solver, step int, t float64) { f(s, step, t) }

type Config struct {
	Steps         int
	SnapshotEvery int
	ValidateState bool
}

// Snapshot is a copy of the density taken after a step.
type Snapshot struct {
	Step    int
	Time    float64
	Density fluid.Field
}

// Frame is handed to RunWithCallback after every step. Solver is live and
// only valid for the duration of the callback.
type Frame struct {
	Step   int
	Time   float64
	Solver *fluid.Solver
}

type Result struct {
	Size       int
	Times      []float64
	Series     map[string][]float64
	Snapshots  []Snapshot
	Final      fluid.Field
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}
