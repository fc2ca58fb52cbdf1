package stream

import (
	"encoding/binary"
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
)

const headerSize = 16

// Frame is one published density field.
type Frame struct {
	N       int
	Step    int
	Time    float64
	Density fluid.Field
}

// EncodeFrame packs f into the binary frame format, quantizing density to
// a byte against the frame's own maximum.
func EncodeFrame(f Frame) []byte {
	inner := f.N - 2
	buf := make([]byte, headerSize+inner*inner)
	ceiling := 0.0
	for j := 1; j < f.N-1; j++ {
		for i := 1; i < f.N-1; i++ {
			ceiling = math.Max(ceiling, f.Density[i+j*f.N])
		}
	}

	binary.LittleEndian.PutUint32(buf[0:], uint32(f.N))
	binary.LittleEndian.PutUint32(buf[4:], uint32(f.Step))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(f.Time)))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(float32(ceiling)))

	if ceiling == 0 {
		return buf
	}
	px := buf[headerSize:]
	for j := 1; j < f.N-1; j++ {
		for i := 1; i < f.N-1; i++ {
			x := f.Density[i+j*f.N] / ceiling * 255
			px[(i-1)+(j-1)*inner] = uint8(math.Max(0, math.Min(255, math.Round(x))))
		}
	}
	return buf
}
