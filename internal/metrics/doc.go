// Package metrics observes a running solver and reduces its fields to
// scalars: interior mass, mass drift, peak density, kinetic energy, residual
// divergence and a stability score. Reductions use gonum's floats package.
package metrics
