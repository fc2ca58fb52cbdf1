// Package emitter provides impulse sources that feed density and velocity
// into a [fluid.Solver] between steps.
//
//   - [None]: injects nothing
//   - [Point]: a fixed splat, once or periodically
//   - [Jet]: a noisy plume at a fixed position whose heading follows 1D Perlin noise
//   - [Manual]: a thread-safe queue of impulses pushed by interactive hosts
//   - [Chain]: several emitters applied in order
//
// # Usage
//
//	jet := emitter.NewJet(32, 32, 42)
//	for step := 0; step < 100; step++ {
//		if err := jet.Emit(solver, step); err != nil {
//			return err
//		}
//		solver.Step()
//	}
package emitter
