// Package viz draws a running fluid in the terminal with Bubble Tea.
//
//   - [Model]: live view of one experiment, stepped on a timer
//   - [App]: preset picker that hands over to a [Model]
//   - [Canvas]: braille dot matrix used for the velocity view
//   - [Shader]: half-block colour rendering of density
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	R      - Reset fields and parameters
//	C      - Clear fields
//	Arrows - Move cursor, Enter splats density there
//	Mouse  - Click to splat, drag to stir
//	Tab +- - Tune diffusion, viscosity and dt
//	V      - Cycle colour, ASCII and velocity views
//	T      - Cycle themes
//	G      - Toggle GIF recording
//	[ ]    - Time travel
package viz
