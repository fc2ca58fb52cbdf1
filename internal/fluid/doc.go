// Package fluid implements a grid-based "stable fluids" solver.
//
// The solver advances a 2D velocity field and a passive density field on an
// N×N grid whose outer one-cell ring models solid walls. Each [Solver.Step]
// applies its stages in a fixed order:
//
//   - diffusion: implicit relaxation of velocity (viscosity) and density
//   - projection: pressure solve that removes the divergent part of velocity
//   - advection: semi-Lagrangian back-tracing with bilinear sampling
//   - boundary enforcement: wall conditions re-applied after every stage
//
// # Example
//
//	s, _ := fluid.New(0.2, 1.0, 0.0000001)
//	_ = s.AddDensity(2, 2, 1.0)
//	s.Step()
//	d := s.Density() // read-only, indexed by s.Index(i, j)
//
// # Thread Safety
//
// A Solver holds no internal locks. Steps and impulses must be serialized by
// the caller, typically one exclusive window per frame.
package fluid
