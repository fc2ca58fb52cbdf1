package emitter

import "github.com/san-kum/fluidsim/internal/fluid"

// Emitter injects impulses into a solver before a step.
type Emitter interface {
	Emit(s *fluid.Solver, step int) error
}

type None struct{}

func NewNone() *None { return &None{} }

func (n *None) Emit(s *fluid.Solver, step int) error { return nil }

// Chain applies emitters in order and stops at the first error.
type Chain []Emitter

func (c Chain) Emit(s *fluid.Solver, step int) error {
	for _, e := range c {
		if err := e.Emit(s, step); err != nil {
			return err
		}
	}
	return nil
}
