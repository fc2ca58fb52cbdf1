// Package analysis characterizes a flow beyond the per-step metrics.
//
//   - [EnergySpectrum]: kinetic energy binned by wavenumber, via a 2D FFT
//   - [Vorticity] and [Enstrophy]: rotation of the velocity field
//   - [Sensitivity]: growth rate of the density difference between two
//     runs that start almost alike
//
// A spectrum that piles up at high wavenumbers usually means dt is too
// large for the grid:
//
//	u, v := solver.Velocity()
//	spectrum := analysis.EnergySpectrum(u, v, solver.Size())
//	fmt.Println(analysis.PeakWavenumber(spectrum))
package analysis
