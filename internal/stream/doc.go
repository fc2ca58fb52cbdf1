// Package stream serves a running simulation to browsers over websockets.
//
// One goroutine owns the simulator and steps it on a ticker. Each step's
// density is copied into a pooled field and handed to a broadcaster that
// encodes it once and fans it out to every client. Clients send JSON
// input messages back; splats go through an emitter.Manual so they are
// applied on the simulation goroutine.
//
// # Frame format
//
// Binary messages, little endian:
//
//	uint32  N
//	uint32  step
//	float32 time
//	float32 ceiling (density mapped to 255)
//	(N-2)*(N-2) bytes of interior density, row-major
package stream
